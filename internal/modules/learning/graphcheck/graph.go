package graphcheck

import (
	"encoding/json"
	"errors"
)

// Node is one concept of a validated graph.
type Node struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ConceptGraph is the canonical result of a successful validation. Nodes keep
// payload order; edges keep the order they were met while scanning nodes.
// Values are never mutated after Validate returns them.
type ConceptGraph struct {
	Nodes []Node
	Edges []Edge
}

// Keys returns the node ids in order.
func (g *ConceptGraph) Keys() []string {
	out := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n.ID)
	}
	return out
}

func (g *ConceptGraph) Has(id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Equal reports structural equality: same nodes and edges in the same order.
func (g *ConceptGraph) Equal(o *ConceptGraph) bool {
	if g == nil || o == nil {
		return g == o
	}
	if len(g.Nodes) != len(o.Nodes) || len(g.Edges) != len(o.Edges) {
		return false
	}
	for i := range g.Nodes {
		if g.Nodes[i] != o.Nodes[i] {
			return false
		}
	}
	for i := range g.Edges {
		if g.Edges[i] != o.Edges[i] {
			return false
		}
	}
	return true
}

type payloadNode struct {
	ID    string   `json:"id"`
	Title string   `json:"title,omitempty"`
	Edges []string `json:"edges,omitempty"`
}

func (g *ConceptGraph) payloadNodes() []payloadNode {
	out := make([]payloadNode, 0, len(g.Nodes))
	index := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		index[n.ID] = len(out)
		out = append(out, payloadNode{ID: n.ID, Title: n.Title})
	}
	for _, e := range g.Edges {
		i := index[e.From]
		out[i].Edges = append(out[i].Edges, e.To)
	}
	return out
}

// Payload re-serializes the graph into the submission shape accepted by
// Validate.
func (g *ConceptGraph) Payload() []any {
	nodes := g.payloadNodes()
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		m := map[string]any{"id": n.ID}
		if n.Title != "" {
			m["title"] = n.Title
		}
		if len(n.Edges) > 0 {
			targets := make([]any, 0, len(n.Edges))
			for _, t := range n.Edges {
				targets = append(targets, t)
			}
			m["edges"] = targets
		}
		out = append(out, m)
	}
	return out
}

func (g *ConceptGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.payloadNodes())
}

type Kind string

const (
	KindMalformed     Kind = "malformed"
	KindDuplicateNode Kind = "duplicate_node"
	KindUnknownNode   Kind = "unknown_node"
	KindSelfLoop      Kind = "self_loop"
	KindCycle         Kind = "cycle"
)

// GraphIntegrityError is the only error Validate returns. Reason is meant to
// be shown to the author as-is.
type GraphIntegrityError struct {
	Kind   Kind
	NodeID string
	Reason string
}

func (e *GraphIntegrityError) Error() string { return e.Reason }

// AsIntegrityError unwraps err into a *GraphIntegrityError.
func AsIntegrityError(err error) (*GraphIntegrityError, bool) {
	var ge *GraphIntegrityError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func integrityError(kind Kind, nodeID, reason string) *GraphIntegrityError {
	return &GraphIntegrityError{Kind: kind, NodeID: nodeID, Reason: reason}
}
