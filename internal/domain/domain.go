package domain

import (
	"github.com/yungbote/octal-backend/internal/domain/maps"
	"github.com/yungbote/octal-backend/internal/domain/octal"
	"github.com/yungbote/octal-backend/internal/domain/user"
)

const (
	MarkLearned = user.MarkLearned
	MarkStarred = user.MarkStarred
)

type (
	User        = user.User
	ConceptMark = user.ConceptMark

	Graph       = maps.Graph
	Concept     = maps.Concept
	ConceptEdge = maps.ConceptEdge
	Study       = maps.Study
	Participant = maps.Participant

	ExerciseConcept = octal.ExerciseConcept
	Exercise        = octal.Exercise
	Response        = octal.Response
	ExerciseAttempt = octal.ExerciseAttempt
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&ConceptMark{},

		&Graph{},
		&Concept{},
		&ConceptEdge{},
		&Study{},
		&Participant{},

		&ExerciseConcept{},
		&Exercise{},
		&Response{},
		&ExerciseAttempt{},
	}
}
