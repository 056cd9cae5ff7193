package realtime

import (
	"github.com/google/uuid"
)

type Event string

const (
	// EventKnowledgeChanged fires after an answer is submitted or a concept
	// is marked, so clients can refresh inferred knowledge.
	EventKnowledgeChanged Event = "knowledge.changed"
	EventMarksChanged     Event = "marks.changed"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// UserChannel is the per-learner channel every stream subscribes to.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
