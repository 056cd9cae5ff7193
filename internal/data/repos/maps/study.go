package maps

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type StudyRepo interface {
	Create(dbc dbctx.Context, s *types.Study, participants []*types.Participant) (*types.Study, error)
	GetByGraphID(dbc dbctx.Context, graphID uuid.UUID) (*types.Study, error)
	GetParticipantByUser(dbc dbctx.Context, studyID, userID uuid.UUID) (*types.Participant, error)
	GetParticipantByPID(dbc dbctx.Context, studyID uuid.UUID, pid string) (*types.Participant, error)
	// BindParticipant attaches userID to an unbound participant. It returns
	// false when the participant is already bound.
	BindParticipant(dbc dbctx.Context, participantID, userID uuid.UUID) (bool, error)
	ListParticipants(dbc dbctx.Context, studyID uuid.UUID) ([]*types.Participant, error)
	// CompleteSurvey sets the presurvey or postsurvey flag.
	CompleteSurvey(dbc dbctx.Context, participantID uuid.UUID, survey string) error
}

type studyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyRepo(db *gorm.DB, baseLog *logger.Logger) StudyRepo {
	return &studyRepo{db: db, log: baseLog.With("repo", "StudyRepo")}
}

func (r *studyRepo) Create(dbc dbctx.Context, s *types.Study, participants []*types.Participant) (*types.Study, error) {
	transaction := dbc.DB(r.db)
	if err := transaction.Create(s).Error; err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return s, nil
	}
	for _, p := range participants {
		p.StudyID = s.ID
	}
	if err := transaction.Create(&participants).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *studyRepo) GetByGraphID(dbc dbctx.Context, graphID uuid.UUID) (*types.Study, error) {
	var s types.Study
	err := dbc.DB(r.db).Where("graph_id = ?", graphID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studyRepo) GetParticipantByUser(dbc dbctx.Context, studyID, userID uuid.UUID) (*types.Participant, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	return r.firstParticipant(dbc, "study_id = ? AND user_id = ?", studyID, userID)
}

func (r *studyRepo) GetParticipantByPID(dbc dbctx.Context, studyID uuid.UUID, pid string) (*types.Participant, error) {
	return r.firstParticipant(dbc, "study_id = ? AND pid = ?", studyID, pid)
}

func (r *studyRepo) firstParticipant(dbc dbctx.Context, query string, args ...any) (*types.Participant, error) {
	var p types.Participant
	err := dbc.DB(r.db).Where(query, args...).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *studyRepo) BindParticipant(dbc dbctx.Context, participantID, userID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Participant{}).
		Where("id = ? AND user_id IS NULL", participantID).
		Update("user_id", userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *studyRepo) ListParticipants(dbc dbctx.Context, studyID uuid.UUID) ([]*types.Participant, error) {
	var out []*types.Participant
	if err := dbc.DB(r.db).
		Where("study_id = ?", studyID).
		Order("created_at ASC, pid ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studyRepo) CompleteSurvey(dbc dbctx.Context, participantID uuid.UUID, survey string) error {
	switch survey {
	case "presurvey", "postsurvey":
	default:
		return fmt.Errorf("unknown survey %q", survey)
	}
	return dbc.DB(r.db).
		Model(&types.Participant{}).
		Where("id = ?", participantID).
		Update(survey, true).Error
}
