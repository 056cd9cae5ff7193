package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/repos/maps"
	"github.com/yungbote/octal-backend/internal/data/repos/octal"
	"github.com/yungbote/octal-backend/internal/data/repos/user"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type ConceptMarkRepo = user.ConceptMarkRepo

type GraphRepo = maps.GraphRepo
type StudyRepo = maps.StudyRepo

type ExerciseConceptRepo = octal.ExerciseConceptRepo
type ExerciseRepo = octal.ExerciseRepo
type ResponseRepo = octal.ResponseRepo
type ExerciseAttemptRepo = octal.ExerciseAttemptRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewConceptMarkRepo(db *gorm.DB, baseLog *logger.Logger) ConceptMarkRepo {
	return user.NewConceptMarkRepo(db, baseLog)
}

func NewGraphRepo(db *gorm.DB, baseLog *logger.Logger) GraphRepo { return maps.NewGraphRepo(db, baseLog) }
func NewStudyRepo(db *gorm.DB, baseLog *logger.Logger) StudyRepo { return maps.NewStudyRepo(db, baseLog) }

func NewExerciseConceptRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseConceptRepo {
	return octal.NewExerciseConceptRepo(db, baseLog)
}
func NewExerciseRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseRepo {
	return octal.NewExerciseRepo(db, baseLog)
}
func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return octal.NewResponseRepo(db, baseLog)
}
func NewExerciseAttemptRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseAttemptRepo {
	return octal.NewExerciseAttemptRepo(db, baseLog)
}
