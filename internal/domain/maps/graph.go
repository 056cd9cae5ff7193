package maps

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Graph is an authored concept map ("unit").
type Graph struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Public      bool      `gorm:"column:public;not null;default:false;index" json:"public"`
	StudyActive bool      `gorm:"column:study_active;not null;default:false" json:"study_active"`
	// Secret is a bcrypt hash; the plaintext is handed out once on create.
	Secret    string `gorm:"column:secret;not null" json:"-"`
	LTIKey    string `gorm:"column:lti_key" json:"-"`
	LTISecret string `gorm:"column:lti_secret" json:"-"`
	// GraphJSON is the canonical re-serialization of the validated graph.
	GraphJSON datatypes.JSON `gorm:"column:graph_json" json:"graph_json"`

	Concepts []Concept     `gorm:"foreignKey:GraphID" json:"-"`
	Edges    []ConceptEdge `gorm:"foreignKey:GraphID" json:"-"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Graph) TableName() string { return "graph" }

func (g *Graph) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type Concept struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GraphID   uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_graph_key,unique,priority:1" json:"graph_id"`
	Key       string    `gorm:"column:key;not null;index:idx_concept_graph_key,unique,priority:2" json:"key"`
	Title     string    `gorm:"column:title" json:"title,omitempty"`
	SortIndex int       `gorm:"column:sort_index;not null;default:0" json:"sort_index"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Concept) TableName() string { return "concept" }

func (c *Concept) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConceptEdge points from a concept to one of its declared targets.
type ConceptEdge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GraphID   uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_edge_graph,unique,priority:1" json:"graph_id"`
	FromKey   string    `gorm:"column:from_key;not null;index:idx_concept_edge_graph,unique,priority:2" json:"from"`
	ToKey     string    `gorm:"column:to_key;not null;index:idx_concept_edge_graph,unique,priority:3" json:"to"`
	SortIndex int       `gorm:"column:sort_index;not null;default:0" json:"sort_index"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ConceptEdge) TableName() string { return "concept_edge" }

func (e *ConceptEdge) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
