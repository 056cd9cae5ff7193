package octal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExerciseConcept links quiz content to a concept key.
type ExerciseConcept struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConceptKey string    `gorm:"column:concept_key;not null;uniqueIndex" json:"concept_key"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ExerciseConcept) TableName() string { return "exercise_concept" }

func (c *ExerciseConcept) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Exercise struct {
	ID       uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Question string             `gorm:"column:question;type:text;not null;uniqueIndex" json:"question"`
	QType    string             `gorm:"column:qtype;not null;default:'mc'" json:"qtype"`
	Concepts []*ExerciseConcept `gorm:"many2many:exercise_concept_link;" json:"concepts,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Exercise) TableName() string { return "exercise" }

func (e *Exercise) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Response is one answer choice; Distract marks the wrong ones.
type Response struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExerciseID uuid.UUID `gorm:"type:uuid;not null;index:idx_response_exercise_text,unique,priority:1" json:"exercise_id"`
	Response   string    `gorm:"column:response;not null;index:idx_response_exercise_text,unique,priority:2" json:"response"`
	Distract   bool      `gorm:"column:distract;not null;default:false" json:"distract"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Response) TableName() string { return "response" }

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
