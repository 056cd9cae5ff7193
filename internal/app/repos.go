package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/repos"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type Repos struct {
	User            repos.UserRepo
	ConceptMark     repos.ConceptMarkRepo
	Graph           repos.GraphRepo
	Study           repos.StudyRepo
	ExerciseConcept repos.ExerciseConceptRepo
	Exercise        repos.ExerciseRepo
	Response        repos.ResponseRepo
	Attempt         repos.ExerciseAttemptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:            repos.NewUserRepo(db, log),
		ConceptMark:     repos.NewConceptMarkRepo(db, log),
		Graph:           repos.NewGraphRepo(db, log),
		Study:           repos.NewStudyRepo(db, log),
		ExerciseConcept: repos.NewExerciseConceptRepo(db, log),
		Exercise:        repos.NewExerciseRepo(db, log),
		Response:        repos.NewResponseRepo(db, log),
		Attempt:         repos.NewExerciseAttemptRepo(db, log),
	}
}
