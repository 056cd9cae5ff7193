package app

import (
	"context"
	"fmt"

	"github.com/yungbote/octal-backend/internal/data/graph"
	"github.com/yungbote/octal-backend/internal/observability"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/platform/neo4jdb"
	"github.com/yungbote/octal-backend/internal/realtime/bus"
)

type Clients struct {
	Bus       bus.Bus
	Neo4j     *neo4jdb.Client
	Projector graph.Projector
	Metrics   *observability.Metrics
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis (falls back to in-process delivery)
	b, err := bus.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init event bus: %w", err)
	}

	// Neo4j (optional graph mirror)
	client, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		_ = b.Close()
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	projector := graph.Noop()
	if client != nil {
		projector = graph.NewNeo4jProjector(client, log)
	}

	return Clients{
		Bus:       b,
		Neo4j:     client,
		Projector: projector,
		Metrics:   observability.Init(log),
	}, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
}
