package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type ConceptMarkRepo interface {
	Add(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error
	Remove(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error
	ListKeys(dbc dbctx.Context, userID uuid.UUID, kind string) ([]string, error)
}

type conceptMarkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptMarkRepo(db *gorm.DB, baseLog *logger.Logger) ConceptMarkRepo {
	return &conceptMarkRepo{db: db, log: baseLog.With("repo", "ConceptMarkRepo")}
}

// Add is idempotent.
func (r *conceptMarkRepo) Add(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error {
	row := &types.ConceptMark{UserID: userID, ConceptKey: conceptKey, Kind: kind}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *conceptMarkRepo) Remove(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error {
	return dbc.DB(r.db).
		Where("user_id = ? AND kind = ? AND concept_key = ?", userID, kind, conceptKey).
		Delete(&types.ConceptMark{}).Error
}

func (r *conceptMarkRepo) ListKeys(dbc dbctx.Context, userID uuid.UUID, kind string) ([]string, error) {
	keys := []string{}
	if userID == uuid.Nil {
		return keys, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.ConceptMark{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at ASC, concept_key ASC").
		Pluck("concept_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
