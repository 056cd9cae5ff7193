package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/graph"
	"github.com/yungbote/octal-backend/internal/data/repos"
	"github.com/yungbote/octal-backend/internal/data/repos/testutil"
	"github.com/yungbote/octal-backend/internal/modules/learning/graphcheck"
	"github.com/yungbote/octal-backend/internal/modules/learning/inference"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/realtime"
)

type captureEmitter struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (c *captureEmitter) Emit(_ context.Context, msg realtime.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *captureEmitter) events(ev realtime.Event) []realtime.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []realtime.Message
	for _, m := range c.msgs {
		if m.Event == ev {
			out = append(out, m)
		}
	}
	return out
}

type harness struct {
	ctx     context.Context
	tx      *gorm.DB
	dbc     dbctx.Context
	emitter *captureEmitter

	graphRepo repos.GraphRepo
	studyRepo repos.StudyRepo

	auth      AuthService
	users     UserService
	maps      MapsService
	octal     OctalService
	knowledge KnowledgeService
	bank      ExerciseBankService
}

// newHarness wires every service against one rolled-back transaction.
func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	userRepo := repos.NewUserRepo(tx, log)
	markRepo := repos.NewConceptMarkRepo(tx, log)
	graphRepo := repos.NewGraphRepo(tx, log)
	studyRepo := repos.NewStudyRepo(tx, log)
	ecRepo := repos.NewExerciseConceptRepo(tx, log)
	exRepo := repos.NewExerciseRepo(tx, log)
	respRepo := repos.NewResponseRepo(tx, log)
	attemptRepo := repos.NewExerciseAttemptRepo(tx, log)

	emitter := &captureEmitter{}
	notifier := NewLearnerNotifier(emitter)
	mapsSvc := NewMapsService(tx, log, graphRepo, studyRepo, graph.Noop(), graphcheck.Validator{}, nil)

	return &harness{
		ctx:       ctx,
		tx:        tx,
		dbc:       dbctx.Context{Ctx: ctx},
		emitter:   emitter,
		graphRepo: graphRepo,
		studyRepo: studyRepo,
		auth:      NewAuthService(tx, log, userRepo, "test-secret", 0),
		users:     NewUserService(tx, log, userRepo, markRepo, notifier),
		maps:      mapsSvc,
		octal:     NewOctalService(tx, log, mapsSvc, graphRepo, markRepo, ecRepo, exRepo, respRepo, attemptRepo, notifier, nil),
		knowledge: NewKnowledgeService(tx, log, attemptRepo, graphRepo, inference.Inferrer{}, nil),
		bank:      NewExerciseBankService(tx, log, ecRepo, exRepo, respRepo),
	}
}

func requireAPIError(t *testing.T, err error, status int, code string) *apierr.Error {
	t.Helper()
	require.Error(t, err)
	ae := apierr.Resolve(err)
	require.Equal(t, status, ae.Status, "error: %v", err)
	require.Equal(t, code, ae.Code, "error: %v", err)
	return ae
}
