package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/repos"
	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/errs"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	UpdateName(dbc dbctx.Context, userID uuid.UUID, firstName, lastName string) (*types.User, error)
	// ListMarks returns the caller's concept keys flagged with kind.
	ListMarks(dbc dbctx.Context, userID uuid.UUID, kind string) ([]string, error)
	Mark(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error
	Unmark(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	markRepo repos.ConceptMarkRepo
	notifier LearnerNotifier
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, markRepo repos.ConceptMarkRepo, notifier LearnerNotifier) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
		markRepo: markRepo,
		notifier: notifier,
	}
}

func (us *userService) GetMe(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errs.ErrUnauthorized)
	}
	found, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(found) == 0 {
		return nil, apierr.NotFound("user_not_found", nil)
	}
	return found[0], nil
}

func (us *userService) UpdateName(dbc dbctx.Context, userID uuid.UUID, firstName, lastName string) (*types.User, error) {
	if err := us.userRepo.UpdateName(dbc, userID, strings.TrimSpace(firstName), strings.TrimSpace(lastName)); err != nil {
		return nil, fmt.Errorf("update name: %w", err)
	}
	return us.GetMe(dbc, userID)
}

func (us *userService) ListMarks(dbc dbctx.Context, userID uuid.UUID, kind string) ([]string, error) {
	if err := checkMarkKind(kind); err != nil {
		return nil, err
	}
	keys, err := us.markRepo.ListKeys(dbc, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s concepts: %w", kind, err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func (us *userService) Mark(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error {
	return us.setMark(dbc, userID, kind, conceptKey, true)
}

func (us *userService) Unmark(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string) error {
	return us.setMark(dbc, userID, kind, conceptKey, false)
}

func (us *userService) setMark(dbc dbctx.Context, userID uuid.UUID, kind, conceptKey string, marked bool) error {
	if err := checkMarkKind(kind); err != nil {
		return err
	}
	conceptKey = strings.TrimSpace(conceptKey)
	if conceptKey == "" {
		return apierr.OnField(http.StatusBadRequest, "invalid_concept", "concept", fmt.Errorf("%w: concept id is required", errs.ErrInvalidArgument))
	}
	var err error
	if marked {
		err = us.markRepo.Add(dbc, userID, kind, conceptKey)
	} else {
		err = us.markRepo.Remove(dbc, userID, kind, conceptKey)
	}
	if err != nil {
		return fmt.Errorf("update %s mark: %w", kind, err)
	}
	if us.notifier != nil {
		us.notifier.MarksChanged(dbc.Ctx, userID, kind, conceptKey, marked)
	}
	return nil
}

func checkMarkKind(kind string) error {
	switch kind {
	case types.MarkLearned, types.MarkStarred:
		return nil
	}
	return apierr.OnField(http.StatusBadRequest, "invalid_kind", "kind", fmt.Errorf("%w: kind must be %q or %q", errs.ErrInvalidArgument, types.MarkLearned, types.MarkStarred))
}
