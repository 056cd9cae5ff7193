package graphcheck

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const payloadSchemaURL = "schema://octal/concept-graph.json"

var payloadSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "array",
	"items": map[string]any{
		"type":     "object",
		"required": []any{"id"},
		"properties": map[string]any{
			"id":    map[string]any{"type": "string", "minLength": 1},
			"title": map[string]any{"type": []any{"string", "null"}},
			"edges": map[string]any{
				"type":  []any{"array", "null"},
				"items": map[string]any{"type": "string", "minLength": 1},
			},
		},
	},
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(payloadSchemaURL, payloadSchema); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(payloadSchemaURL)
	})
	return compiledSchema, schemaErr
}

// checkShape reports the structural violation at the lowest instance
// location, so the message does not depend on evaluation order.
func checkShape(doc any) *GraphIntegrityError {
	sch, err := compiled()
	if err != nil {
		return integrityError(KindMalformed, "", "malformed graph: "+err.Error())
	}
	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return integrityError(KindMalformed, "", "malformed graph: "+err.Error())
	}
	leaves := collectLeaves(ve, nil)
	sort.SliceStable(leaves, func(i, j int) bool {
		a, b := leaves[i].InstanceLocation, leaves[j].InstanceLocation
		if lessLocation(a, b) || lessLocation(b, a) {
			return lessLocation(a, b)
		}
		return describe(leaves[i]) < describe(leaves[j])
	})
	return integrityError(KindMalformed, "", "malformed graph: "+describe(leaves[0]))
}

func collectLeaves(ve *jsonschema.ValidationError, out []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return append(out, ve)
	}
	for _, c := range ve.Causes {
		out = collectLeaves(c, out)
	}
	return out
}

func lessLocation(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		ai, aErr := strconv.Atoi(a[i])
		bi, bErr := strconv.Atoi(b[i])
		if aErr == nil && bErr == nil {
			return ai < bi
		}
		return a[i] < b[i]
	}
	return len(a) < len(b)
}

func describe(ve *jsonschema.ValidationError) string {
	at := "/" + strings.Join(ve.InstanceLocation, "/")
	keyword := ""
	if ve.ErrorKind != nil {
		if path := ve.ErrorKind.KeywordPath(); len(path) > 0 {
			keyword = path[len(path)-1]
		}
	}
	switch keyword {
	case "type":
		switch len(ve.InstanceLocation) {
		case 0:
			return "expected a list of nodes"
		case 1:
			return fmt.Sprintf("node at %s must be an object", at)
		}
		return fmt.Sprintf("wrong type at %s", at)
	case "required":
		return fmt.Sprintf("node at %s is missing an id", at)
	case "minLength":
		return fmt.Sprintf("empty string at %s", at)
	case "":
		return fmt.Sprintf("invalid value at %s", at)
	}
	return fmt.Sprintf("invalid value at %s (%s)", at, keyword)
}
