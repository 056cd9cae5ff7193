package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/repos"
	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/observability"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/errs"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

// AppConcept is one concept the learner has flagged.
type AppConcept struct {
	ID      string `json:"id"`
	Learned bool   `json:"learned"`
	Starred bool   `json:"starred"`
}

// AppState is everything the quiz client needs on load.
type AppState struct {
	*GraphView
	UserConcepts []AppConcept `json:"user_concepts"`
}

// ExercisePayload is the wire shape the quiz client expects: question id,
// question html, question type, answers (right answer first) and attempt id.
type ExercisePayload struct {
	QID       uuid.UUID `json:"qid"`
	Question  string    `json:"h"`
	QType     string    `json:"t"`
	Answers   []string  `json:"a"`
	AttemptID uuid.UUID `json:"aid"`
}

// SubmitResult carries the follow-up attempt handed out after a wrong
// answer. NextAttemptID is uuid.Nil after a right answer.
type SubmitResult struct {
	Attempt       *types.ExerciseAttempt
	NextAttemptID uuid.UUID
}

type OctalService interface {
	AppState(dbc dbctx.Context, graphID, userID uuid.UUID) (*AppState, error)
	RequestExercise(dbc dbctx.Context, graphID, userID uuid.UUID, conceptKey string) (*ExercisePayload, error)
	// GetOpenAttempt returns nil when the attempt is not open for userID.
	GetOpenAttempt(dbc dbctx.Context, attemptID, userID uuid.UUID) (*types.ExerciseAttempt, error)
	SubmitAttempt(dbc dbctx.Context, attemptID, userID uuid.UUID, correct bool) (*SubmitResult, error)
}

type octalService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	maps                MapsService
	graphRepo           repos.GraphRepo
	markRepo            repos.ConceptMarkRepo
	exerciseConceptRepo repos.ExerciseConceptRepo
	exerciseRepo        repos.ExerciseRepo
	responseRepo        repos.ResponseRepo
	attemptRepo         repos.ExerciseAttemptRepo
	notifier            LearnerNotifier
	metrics             *observability.Metrics
}

func NewOctalService(
	db *gorm.DB,
	log *logger.Logger,
	maps MapsService,
	graphRepo repos.GraphRepo,
	markRepo repos.ConceptMarkRepo,
	exerciseConceptRepo repos.ExerciseConceptRepo,
	exerciseRepo repos.ExerciseRepo,
	responseRepo repos.ResponseRepo,
	attemptRepo repos.ExerciseAttemptRepo,
	notifier LearnerNotifier,
	metrics *observability.Metrics,
) OctalService {
	return &octalService{
		db:                  db,
		log:                 log.With("service", "OctalService"),
		maps:                maps,
		graphRepo:           graphRepo,
		markRepo:            markRepo,
		exerciseConceptRepo: exerciseConceptRepo,
		exerciseRepo:        exerciseRepo,
		responseRepo:        responseRepo,
		attemptRepo:         attemptRepo,
		notifier:            notifier,
		metrics:             metrics,
	}
}

func (oc *octalService) AppState(dbc dbctx.Context, graphID, userID uuid.UUID) (*AppState, error) {
	var (
		view    *GraphView
		learned []string
		starred []string
	)
	parent := dbc.Ctx
	if parent == nil {
		parent = context.Background()
	}
	g, ctx := errgroup.WithContext(parent)
	inner := dbctx.Context{Ctx: ctx, Tx: dbc.Tx}
	g.Go(func() error {
		var err error
		view, err = oc.maps.Get(inner, graphID, userID)
		return err
	})
	if userID != uuid.Nil {
		g.Go(func() error {
			var err error
			learned, err = oc.markRepo.ListKeys(inner, userID, types.MarkLearned)
			return err
		})
		g.Go(func() error {
			var err error
			starred, err = oc.markRepo.ListKeys(inner, userID, types.MarkStarred)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &AppState{GraphView: view, UserConcepts: mergeMarks(learned, starred)}, nil
}

// mergeMarks lists the union of both sets, learned keys first.
func mergeMarks(learned, starred []string) []AppConcept {
	out := make([]AppConcept, 0, len(learned)+len(starred))
	idx := map[string]int{}
	for _, k := range learned {
		if _, ok := idx[k]; ok {
			continue
		}
		idx[k] = len(out)
		out = append(out, AppConcept{ID: k, Learned: true})
	}
	for _, k := range starred {
		if i, ok := idx[k]; ok {
			out[i].Starred = true
			continue
		}
		idx[k] = len(out)
		out = append(out, AppConcept{ID: k, Starred: true})
	}
	return out
}

func (oc *octalService) RequestExercise(dbc dbctx.Context, graphID, userID uuid.UUID, conceptKey string) (*ExercisePayload, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errs.ErrUnauthorized)
	}
	conceptKey = strings.TrimSpace(conceptKey)
	concept, err := oc.graphRepo.HasConcept(dbc, graphID, conceptKey)
	if err != nil {
		return nil, fmt.Errorf("lookup concept: %w", err)
	}
	if concept == nil {
		return nil, apierr.New(http.StatusUnprocessableEntity, "unknown_concept", fmt.Errorf("%w: concept %q is not in this graph", errs.ErrInvalidArgument, conceptKey))
	}
	name := concept.Title
	if name == "" {
		name = concept.Key
	}
	ec, err := oc.exerciseConceptRepo.GetOrCreate(dbc, concept.Key, name)
	if err != nil {
		return nil, fmt.Errorf("exercise concept: %w", err)
	}

	ex, err := oc.exerciseRepo.RandomForConcept(dbc, ec.ID)
	if err != nil {
		return nil, fmt.Errorf("pick exercise: %w", err)
	}
	if ex == nil {
		return nil, apierr.NotFound("no_exercise", fmt.Errorf("%w: no exercise for concept %q", errs.ErrNotFound, concept.Key))
	}
	responses, err := oc.responseRepo.ListByExercise(dbc, ex.ID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if len(responses) == 0 {
		return nil, apierr.NotFound("no_responses", fmt.Errorf("%w: exercise has no responses", errs.ErrNotFound))
	}
	answers := make([]string, 0, len(responses))
	for _, r := range responses {
		answers = append(answers, r.Response)
	}

	attempt, err := oc.attemptRepo.FindOrCreateOpen(dbc, userID, ec, ex.ID)
	if err != nil {
		return nil, fmt.Errorf("open attempt: %w", err)
	}
	return &ExercisePayload{
		QID:       ex.ID,
		Question:  ex.Question,
		QType:     ex.QType,
		Answers:   answers,
		AttemptID: attempt.ID,
	}, nil
}

func (oc *octalService) GetOpenAttempt(dbc dbctx.Context, attemptID, userID uuid.UUID) (*types.ExerciseAttempt, error) {
	a, err := oc.attemptRepo.GetOpen(dbc, attemptID, userID)
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return a, nil
}

func (oc *octalService) SubmitAttempt(dbc dbctx.Context, attemptID, userID uuid.UUID, correct bool) (*SubmitResult, error) {
	var res SubmitResult
	err := dbc.DB(oc.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		submitted, err := oc.attemptRepo.Submit(inner, attemptID, userID, correct)
		if err != nil {
			return err
		}
		if submitted == nil {
			return apierr.NotFound("attempt_not_open", fmt.Errorf("%w: attempt is not open", errs.ErrNotFound))
		}
		res.Attempt = submitted
		if correct {
			return nil
		}
		ec := &types.ExerciseConcept{ID: submitted.ExerciseConceptID, ConceptKey: submitted.ConceptKey}
		next, err := oc.attemptRepo.FindOrCreateOpen(inner, userID, ec, submitted.ExerciseID)
		if err != nil {
			return err
		}
		res.NextAttemptID = next.ID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	oc.metrics.IncAttemptSubmitted(correct)
	if oc.notifier != nil {
		oc.notifier.KnowledgeChanged(dbc.Ctx, userID, res.Attempt.ConceptKey, correct)
	}
	return &res, nil
}
