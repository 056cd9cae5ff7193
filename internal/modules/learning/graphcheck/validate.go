package graphcheck

import (
	"bytes"
	"encoding/json"
)

// Validator checks concept-graph submissions. The zero value accepts cyclic
// graphs.
type Validator struct {
	RequireAcyclic bool
}

// Validate checks payload with the default Validator.
func Validate(payload any) (*ConceptGraph, error) {
	return Validator{}.Validate(payload)
}

// ValidateJSON parses raw and validates the result.
func (v Validator) ValidateJSON(raw []byte) (*ConceptGraph, error) {
	payload, err := ParseJSON(raw)
	if err != nil {
		return nil, err
	}
	return v.Validate(payload)
}

// Validate turns a decoded submission into a ConceptGraph. Checks run in a
// fixed order so the first failure reported is always the same for the same
// payload: shape, then node ids in payload order, then each node's edges in
// list order, then (optionally) cycles.
func (v Validator) Validate(payload any) (*ConceptGraph, error) {
	doc, gerr := normalize(payload)
	if gerr != nil {
		return nil, gerr
	}
	if gerr := checkShape(doc); gerr != nil {
		return nil, gerr
	}

	items := doc.([]any)
	g := &ConceptGraph{Nodes: make([]Node, 0, len(items))}
	declared := make(map[string]struct{}, len(items))
	for _, it := range items {
		m := it.(map[string]any)
		id := m["id"].(string)
		if _, dup := declared[id]; dup {
			return nil, integrityError(KindDuplicateNode, id, "duplicate node id: "+id)
		}
		declared[id] = struct{}{}
		title, _ := m["title"].(string)
		g.Nodes = append(g.Nodes, Node{ID: id, Title: title})
	}

	seen := make(map[Edge]struct{})
	for _, it := range items {
		m := it.(map[string]any)
		from := m["id"].(string)
		targets, _ := m["edges"].([]any)
		for _, t := range targets {
			to := t.(string)
			if to == from {
				return nil, integrityError(KindSelfLoop, from, "self-loop at node: "+from)
			}
			if _, ok := declared[to]; !ok {
				return nil, integrityError(KindUnknownNode, to, "edge references unknown node: "+to)
			}
			e := Edge{From: from, To: to}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			g.Edges = append(g.Edges, e)
		}
	}

	if v.RequireAcyclic {
		if id, ok := firstOnCycle(g); ok {
			return nil, integrityError(KindCycle, id, "cycle detected at node: "+id)
		}
	}
	return g, nil
}

// ParseJSON decodes a raw submission. It only reports blank input and JSON
// syntax problems; everything else is left to Validate.
func ParseJSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, integrityError(KindMalformed, "", "graph cannot be blank")
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, integrityError(KindMalformed, "", "malformed JSON")
	}
	return out, nil
}

// normalize brings typed values (structs, typed slices, raw bytes) into the
// generic []any/map[string]any form the schema and the scan expect.
func normalize(payload any) (any, *GraphIntegrityError) {
	switch p := payload.(type) {
	case nil:
		return nil, integrityError(KindMalformed, "", "graph cannot be blank")
	case []any:
		return p, nil
	case json.RawMessage:
		return parseNormalized(p)
	case []byte:
		return parseNormalized(p)
	case *ConceptGraph:
		return p.Payload(), nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, integrityError(KindMalformed, "", "malformed graph: "+err.Error())
	}
	return parseNormalized(b)
}

func parseNormalized(b []byte) (any, *GraphIntegrityError) {
	out, err := ParseJSON(b)
	if err != nil {
		ge, _ := AsIntegrityError(err)
		return nil, ge
	}
	return out, nil
}
