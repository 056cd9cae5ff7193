package maps

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Study holds research-study settings for a graph. Graphs without an active
// study still get a blank row.
type Study struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GraphID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"graph_id"`
	Active    bool      `gorm:"column:active;not null;default:false" json:"active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Study) TableName() string { return "study" }

func (s *Study) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Participant struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudyID uuid.UUID  `gorm:"type:uuid;not null;index:idx_participant_study_pid,unique,priority:1" json:"study_id"`
	PID     string     `gorm:"column:pid;not null;index:idx_participant_study_pid,unique,priority:2" json:"pid"`
	UserID  *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	// Linear selects the linear presentation arm of the experiment.
	Linear     bool `gorm:"column:linear;not null;default:false" json:"linear"`
	Spectator  bool `gorm:"column:spectator;not null;default:false" json:"spectator"`
	Presurvey  bool `gorm:"column:presurvey;not null;default:false" json:"presurvey"`
	Postsurvey bool `gorm:"column:postsurvey;not null;default:false" json:"postsurvey"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Participant) TableName() string { return "participant" }

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsParticipant reports whether p counts toward study results.
func (p *Participant) IsParticipant() bool {
	return p != nil && !p.Spectator
}
