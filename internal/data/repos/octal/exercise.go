package octal

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type ExerciseConceptRepo interface {
	GetOrCreate(dbc dbctx.Context, conceptKey, name string) (*types.ExerciseConcept, error)
	GetByKey(dbc dbctx.Context, conceptKey string) (*types.ExerciseConcept, error)
}

type exerciseConceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExerciseConceptRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseConceptRepo {
	return &exerciseConceptRepo{db: db, log: baseLog.With("repo", "ExerciseConceptRepo")}
}

func (r *exerciseConceptRepo) GetOrCreate(dbc dbctx.Context, conceptKey, name string) (*types.ExerciseConcept, error) {
	if name == "" {
		name = conceptKey
	}
	row := &types.ExerciseConcept{ConceptKey: conceptKey, Name: name}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "concept_key"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByKey(dbc, conceptKey)
}

func (r *exerciseConceptRepo) GetByKey(dbc dbctx.Context, conceptKey string) (*types.ExerciseConcept, error) {
	var ec types.ExerciseConcept
	err := dbc.DB(r.db).Where("concept_key = ?", conceptKey).First(&ec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ec, nil
}

type ExerciseRepo interface {
	// RandomForConcept picks one exercise linked to the concept, or nil.
	RandomForConcept(dbc dbctx.Context, exerciseConceptID uuid.UUID) (*types.Exercise, error)
	GetOrCreateByQuestion(dbc dbctx.Context, question, qtype string) (*types.Exercise, error)
	LinkConcepts(dbc dbctx.Context, ex *types.Exercise, concepts []*types.ExerciseConcept) error
	Count(dbc dbctx.Context) (int64, error)
}

type exerciseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExerciseRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseRepo {
	return &exerciseRepo{db: db, log: baseLog.With("repo", "ExerciseRepo")}
}

func (r *exerciseRepo) RandomForConcept(dbc dbctx.Context, exerciseConceptID uuid.UUID) (*types.Exercise, error) {
	var ex types.Exercise
	err := dbc.DB(r.db).
		Joins("JOIN exercise_concept_link ecl ON ecl.exercise_id = exercise.id").
		Where("ecl.exercise_concept_id = ?", exerciseConceptID).
		Order("RANDOM()").
		First(&ex).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func (r *exerciseRepo) GetOrCreateByQuestion(dbc dbctx.Context, question, qtype string) (*types.Exercise, error) {
	if qtype == "" {
		qtype = "mc"
	}
	transaction := dbc.DB(r.db)
	row := &types.Exercise{Question: question, QType: qtype}
	if err := transaction.
		Omit("Concepts").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "question"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var ex types.Exercise
	if err := transaction.Where("question = ?", question).First(&ex).Error; err != nil {
		return nil, err
	}
	return &ex, nil
}

func (r *exerciseRepo) LinkConcepts(dbc dbctx.Context, ex *types.Exercise, concepts []*types.ExerciseConcept) error {
	if ex == nil || len(concepts) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(ex).Association("Concepts").Append(concepts)
}

func (r *exerciseRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Exercise{}).Count(&n).Error
	return n, err
}

type ResponseRepo interface {
	// ListByExercise returns the right answer(s) first, then distractors.
	ListByExercise(dbc dbctx.Context, exerciseID uuid.UUID) ([]*types.Response, error)
	Upsert(dbc dbctx.Context, rows []*types.Response) error
}

type responseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return &responseRepo{db: db, log: baseLog.With("repo", "ResponseRepo")}
}

func (r *responseRepo) ListByExercise(dbc dbctx.Context, exerciseID uuid.UUID) ([]*types.Response, error) {
	var out []*types.Response
	if err := dbc.DB(r.db).
		Where("exercise_id = ?", exerciseID).
		Order("distract ASC, response ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *responseRepo) Upsert(dbc dbctx.Context, rows []*types.Response) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "exercise_id"}, {Name: "response"}},
			DoUpdates: clause.AssignmentColumns([]string{"distract"}),
		}).
		Create(&rows).Error
}
