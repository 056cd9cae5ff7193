package maps

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type GraphRepo interface {
	// Create inserts the graph row followed by its concepts and edges.
	Create(dbc dbctx.Context, g *types.Graph, concepts []*types.Concept, edges []*types.ConceptEdge) (*types.Graph, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Graph, error)
	ListPublic(dbc dbctx.Context) ([]*types.Graph, error)
	// ReplaceStructure swaps concepts, edges and canonical JSON in place.
	ReplaceStructure(dbc dbctx.Context, graphID uuid.UUID, graphJSON datatypes.JSON, concepts []*types.Concept, edges []*types.ConceptEdge) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	ConceptKeys(dbc dbctx.Context, graphID uuid.UUID) ([]string, error)
	HasConcept(dbc dbctx.Context, graphID uuid.UUID, key string) (*types.Concept, error)
}

type graphRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGraphRepo(db *gorm.DB, baseLog *logger.Logger) GraphRepo {
	return &graphRepo{db: db, log: baseLog.With("repo", "GraphRepo")}
}

func (r *graphRepo) Create(dbc dbctx.Context, g *types.Graph, concepts []*types.Concept, edges []*types.ConceptEdge) (*types.Graph, error) {
	if g == nil {
		return nil, errors.New("graph required")
	}
	transaction := dbc.DB(r.db)
	if err := transaction.Omit("Concepts", "Edges").Create(g).Error; err != nil {
		return nil, err
	}
	if err := insertStructure(transaction, g.ID, concepts, edges); err != nil {
		return nil, err
	}
	return g, nil
}

func insertStructure(transaction *gorm.DB, graphID uuid.UUID, concepts []*types.Concept, edges []*types.ConceptEdge) error {
	for i, c := range concepts {
		c.GraphID = graphID
		c.SortIndex = i
	}
	for i, e := range edges {
		e.GraphID = graphID
		e.SortIndex = i
	}
	if len(concepts) > 0 {
		if err := transaction.CreateInBatches(&concepts, 200).Error; err != nil {
			return err
		}
	}
	if len(edges) > 0 {
		if err := transaction.CreateInBatches(&edges, 200).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *graphRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Graph, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var g types.Graph
	err := dbc.DB(r.db).
		Preload("Concepts", func(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC") }).
		Preload("Edges", func(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC") }).
		Where("id = ?", id).
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *graphRepo) ListPublic(dbc dbctx.Context) ([]*types.Graph, error) {
	var out []*types.Graph
	if err := dbc.DB(r.db).
		Where("public = ?", true).
		Order("name ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *graphRepo) ReplaceStructure(dbc dbctx.Context, graphID uuid.UUID, graphJSON datatypes.JSON, concepts []*types.Concept, edges []*types.ConceptEdge) error {
	transaction := dbc.DB(r.db)
	if err := transaction.Where("graph_id = ?", graphID).Delete(&types.ConceptEdge{}).Error; err != nil {
		return err
	}
	if err := transaction.Where("graph_id = ?", graphID).Delete(&types.Concept{}).Error; err != nil {
		return err
	}
	if err := insertStructure(transaction, graphID, concepts, edges); err != nil {
		return err
	}
	return transaction.Model(&types.Graph{}).
		Where("id = ?", graphID).
		Update("graph_json", graphJSON).Error
}

func (r *graphRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.Graph{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *graphRepo) ConceptKeys(dbc dbctx.Context, graphID uuid.UUID) ([]string, error) {
	keys := []string{}
	if err := dbc.DB(r.db).
		Model(&types.Concept{}).
		Where("graph_id = ?", graphID).
		Order("sort_index ASC").
		Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// HasConcept returns the concept or nil when key is not part of the graph.
func (r *graphRepo) HasConcept(dbc dbctx.Context, graphID uuid.UUID, key string) (*types.Concept, error) {
	var c types.Concept
	err := dbc.DB(r.db).
		Where("graph_id = ? AND key = ?", graphID, key).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
