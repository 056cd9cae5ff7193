package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MarkLearned = "learned"
	MarkStarred = "starred"
)

// ConceptMark is a learner's manual flag on a concept key.
type ConceptMark struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_mark,unique,priority:1" json:"user_id"`
	ConceptKey string    `gorm:"column:concept_key;not null;index:idx_concept_mark,unique,priority:2" json:"concept_key"`
	Kind       string    `gorm:"column:kind;not null;index:idx_concept_mark,unique,priority:3" json:"kind"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ConceptMark) TableName() string { return "concept_mark" }

func (m *ConceptMark) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
