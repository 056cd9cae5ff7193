package graph

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/modules/learning/graphcheck"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

func TestNewNeo4jProjectorWithoutClientIsNoop(t *testing.T) {
	p := NewNeo4jProjector(nil, logger.Nop())
	if _, ok := p.(noopProjector); !ok {
		t.Fatalf("expected noop projector, got %T", p)
	}
	g := &graphcheck.ConceptGraph{Nodes: []graphcheck.Node{{ID: "a"}}}
	if err := p.SyncConceptGraph(context.Background(), uuid.New(), "m", g); err != nil {
		t.Fatalf("noop sync: %v", err)
	}
}
