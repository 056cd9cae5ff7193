package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/octal-backend/internal/modules/learning/graphcheck"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/platform/neo4jdb"
)

// Projector mirrors validated concept graphs into a graph store.
type Projector interface {
	SyncConceptGraph(ctx context.Context, graphID uuid.UUID, name string, g *graphcheck.ConceptGraph) error
}

type noopProjector struct{}

// Noop is used when no graph store is configured.
func Noop() Projector { return noopProjector{} }

func (noopProjector) SyncConceptGraph(context.Context, uuid.UUID, string, *graphcheck.ConceptGraph) error {
	return nil
}

type neo4jProjector struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

// NewNeo4jProjector falls back to Noop when client is nil.
func NewNeo4jProjector(client *neo4jdb.Client, log *logger.Logger) Projector {
	if client == nil || client.Driver == nil {
		return Noop()
	}
	return &neo4jProjector{client: client, log: log.With("projector", "Neo4jConceptGraph")}
}

// SyncConceptGraph replaces everything stored for graphID: stale concepts are
// detached and deleted, then nodes and PREREQ_OF edges are merged.
func (p *neo4jProjector) SyncConceptGraph(ctx context.Context, graphID uuid.UUID, name string, g *graphcheck.ConceptGraph) error {
	if graphID == uuid.Nil {
		return fmt.Errorf("neo4j concept graph sync: missing graphID")
	}
	if g == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	gid := graphID.String()

	nodes := make([]map[string]any, 0, len(g.Nodes))
	keys := make([]string, 0, len(g.Nodes))
	for i, n := range g.Nodes {
		keys = append(keys, n.ID)
		nodes = append(nodes, map[string]any{
			"uid":        gid + ":" + n.ID,
			"graph_id":   gid,
			"key":        n.ID,
			"title":      n.Title,
			"sort_index": int64(i),
			"synced_at":  now,
		})
	}
	rels := make([]map[string]any, 0, len(g.Edges))
	for i, e := range g.Edges {
		rels = append(rels, map[string]any{
			"from_uid":   gid + ":" + e.From,
			"to_uid":     gid + ":" + e.To,
			"sort_index": int64(i),
		})
	}

	session := p.client.Session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	// Schema helpers are best-effort; restricted users may not create them.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT octal_concept_uid IF NOT EXISTS FOR (c:OctalConcept) REQUIRE c.uid IS UNIQUE`, nil); err != nil {
		p.log.Warn("neo4j schema init failed (continuing)", "error", err)
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (g:ConceptMap {id: $graph_id})
SET g.name = $name, g.synced_at = $now
WITH g
OPTIONAL MATCH (g)-[:HAS_CONCEPT]->(c:OctalConcept)
WHERE NOT c.key IN $keys
DETACH DELETE c
`, map[string]any{"graph_id": gid, "name": name, "now": now, "keys": keys})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
MATCH (g:ConceptMap {id: $graph_id})-[:HAS_CONCEPT]->(:OctalConcept)-[r:PREREQ_OF]->()
DELETE r
`, map[string]any{"graph_id": gid})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
MATCH (g:ConceptMap {id: $graph_id})
UNWIND $nodes AS n
MERGE (c:OctalConcept {uid: n.uid})
SET c += n
MERGE (g)-[:HAS_CONCEPT]->(c)
`, map[string]any{"graph_id": gid, "nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:OctalConcept {uid: r.from_uid})
MATCH (b:OctalConcept {uid: r.to_uid})
MERGE (a)-[e:PREREQ_OF]->(b)
SET e.sort_index = r.sort_index
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j concept graph sync: %w", err)
	}
	p.log.Debug("concept graph mirrored", "graph_id", gid, "nodes", len(nodes), "edges", len(rels))
	return nil
}
