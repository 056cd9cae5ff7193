package octal

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type ExerciseAttemptRepo interface {
	// FindOrCreateOpen returns the single unsubmitted attempt for the triple,
	// creating it when none exists. Concurrent callers converge on one row.
	FindOrCreateOpen(dbc dbctx.Context, userID uuid.UUID, ec *types.ExerciseConcept, exerciseID uuid.UUID) (*types.ExerciseAttempt, error)
	// GetOpen returns the caller's unsubmitted attempt, or nil.
	GetOpen(dbc dbctx.Context, attemptID, userID uuid.UUID) (*types.ExerciseAttempt, error)
	// Submit records the answer once. It returns nil when the attempt is
	// missing, not the caller's, or already submitted.
	Submit(dbc dbctx.Context, attemptID, userID uuid.UUID, correct bool) (*types.ExerciseAttempt, error)
	// ListSubmitted returns the learner's submitted attempts, oldest first.
	ListSubmitted(dbc dbctx.Context, userID uuid.UUID) ([]*types.ExerciseAttempt, error)
}

type exerciseAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExerciseAttemptRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseAttemptRepo {
	return &exerciseAttemptRepo{db: db, log: baseLog.With("repo", "ExerciseAttemptRepo")}
}

func (r *exerciseAttemptRepo) FindOrCreateOpen(dbc dbctx.Context, userID uuid.UUID, ec *types.ExerciseConcept, exerciseID uuid.UUID) (*types.ExerciseAttempt, error) {
	if userID == uuid.Nil || ec == nil || exerciseID == uuid.Nil {
		return nil, errors.New("user, exercise concept and exercise are required")
	}
	transaction := dbc.DB(r.db)

	if open, err := r.findOpen(transaction, userID, ec.ID, exerciseID); err != nil || open != nil {
		return open, err
	}

	row := &types.ExerciseAttempt{
		UserID:            userID,
		ExerciseID:        exerciseID,
		ExerciseConceptID: ec.ID,
		ConceptKey:        ec.ConceptKey,
	}
	if err := transaction.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}

	open, err := r.findOpen(transaction, userID, ec.ID, exerciseID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, errors.New("open attempt vanished after insert")
	}
	return open, nil
}

func (r *exerciseAttemptRepo) findOpen(transaction *gorm.DB, userID, exerciseConceptID, exerciseID uuid.UUID) (*types.ExerciseAttempt, error) {
	var a types.ExerciseAttempt
	err := transaction.
		Where("user_id = ? AND exercise_concept_id = ? AND exercise_id = ? AND submitted = ?",
			userID, exerciseConceptID, exerciseID, false).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *exerciseAttemptRepo) GetOpen(dbc dbctx.Context, attemptID, userID uuid.UUID) (*types.ExerciseAttempt, error) {
	var a types.ExerciseAttempt
	err := dbc.DB(r.db).
		Where("id = ? AND user_id = ? AND submitted = ?", attemptID, userID, false).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *exerciseAttemptRepo) Submit(dbc dbctx.Context, attemptID, userID uuid.UUID, correct bool) (*types.ExerciseAttempt, error) {
	transaction := dbc.DB(r.db)
	now := time.Now().UTC()
	res := transaction.
		Model(&types.ExerciseAttempt{}).
		Where("id = ? AND user_id = ? AND submitted = ?", attemptID, userID, false).
		Updates(map[string]any{
			"correct":      correct,
			"submitted":    true,
			"submitted_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var a types.ExerciseAttempt
	if err := transaction.Where("id = ?", attemptID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *exerciseAttemptRepo) ListSubmitted(dbc dbctx.Context, userID uuid.UUID) ([]*types.ExerciseAttempt, error) {
	var out []*types.ExerciseAttempt
	if err := dbc.DB(r.db).
		Where("user_id = ? AND submitted = ?", userID, true).
		Order("submitted_at ASC, created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
