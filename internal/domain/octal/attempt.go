package octal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExerciseAttempt is one learner interaction with an exercise. At most one
// unsubmitted attempt exists per (user, concept, exercise); see
// db.EnsureIndexes.
type ExerciseAttempt struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ExerciseID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"exercise_id"`
	ExerciseConceptID uuid.UUID  `gorm:"type:uuid;not null;index" json:"exercise_concept_id"`
	ConceptKey        string     `gorm:"column:concept_key;not null" json:"concept_key"`
	Correct           bool       `gorm:"column:correct;not null;default:false" json:"correct"`
	Submitted         bool       `gorm:"column:submitted;not null;default:false;index" json:"submitted"`
	SubmittedAt       *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ExerciseAttempt) TableName() string { return "exercise_attempt" }

func (a *ExerciseAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
