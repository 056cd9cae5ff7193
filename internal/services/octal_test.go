package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/octal-backend/internal/data/repos/testutil"
	"github.com/yungbote/octal-backend/internal/modules/learning/inference"
	"github.com/yungbote/octal-backend/internal/realtime"
)

const quizGraphJSON = `[{"id":"recursion","title":"Recursion","edges":["memoization"]},{"id":"memoization"}]`

func seedQuizGraph(t *testing.T, h *harness) uuid.UUID {
	t.Helper()
	created, err := h.maps.Create(h.dbc, CreateGraphInput{Name: "quiz", Public: true, Source: GraphSource{JSONData: quizGraphJSON}})
	require.NoError(t, err)
	ec := testutil.SeedExerciseConcept(t, h.ctx, h.tx, "recursion")
	testutil.SeedExercise(t, h.ctx, h.tx, ec, "<p>Base case?</p>", "right", "w2", "w1")
	return created.Graph.ID
}

func TestRequestExercise(t *testing.T) {
	h := newHarness(t)
	graphID := seedQuizGraph(t, h)
	u := testutil.SeedUser(t, h.ctx, h.tx, "learner@example.com")

	ex, err := h.octal.RequestExercise(h.dbc, graphID, u.ID, "recursion")
	require.NoError(t, err)
	require.Equal(t, "<p>Base case?</p>", ex.Question)
	require.Equal(t, "mc", ex.QType)
	require.Equal(t, []string{"right", "w1", "w2"}, ex.Answers)
	require.NotEqual(t, uuid.Nil, ex.AttemptID)

	again, err := h.octal.RequestExercise(h.dbc, graphID, u.ID, "recursion")
	require.NoError(t, err)
	require.Equal(t, ex.AttemptID, again.AttemptID)

	_, err = h.octal.RequestExercise(h.dbc, graphID, u.ID, "nope")
	requireAPIError(t, err, http.StatusUnprocessableEntity, "unknown_concept")

	_, err = h.octal.RequestExercise(h.dbc, graphID, u.ID, "memoization")
	requireAPIError(t, err, http.StatusNotFound, "no_exercise")

	_, err = h.octal.RequestExercise(h.dbc, graphID, uuid.Nil, "recursion")
	requireAPIError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestSubmitAttempt(t *testing.T) {
	h := newHarness(t)
	graphID := seedQuizGraph(t, h)
	u := testutil.SeedUser(t, h.ctx, h.tx, "learner@example.com")
	other := testutil.SeedUser(t, h.ctx, h.tx, "other@example.com")

	ex, err := h.octal.RequestExercise(h.dbc, graphID, u.ID, "recursion")
	require.NoError(t, err)

	open, err := h.octal.GetOpenAttempt(h.dbc, ex.AttemptID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	open, err = h.octal.GetOpenAttempt(h.dbc, ex.AttemptID, other.ID)
	require.NoError(t, err)
	require.Nil(t, open)

	_, err = h.octal.SubmitAttempt(h.dbc, ex.AttemptID, other.ID, true)
	requireAPIError(t, err, http.StatusNotFound, "attempt_not_open")

	wrong, err := h.octal.SubmitAttempt(h.dbc, ex.AttemptID, u.ID, false)
	require.NoError(t, err)
	require.True(t, wrong.Attempt.Submitted)
	require.False(t, wrong.Attempt.Correct)
	require.NotEqual(t, uuid.Nil, wrong.NextAttemptID)
	require.NotEqual(t, ex.AttemptID, wrong.NextAttemptID)

	_, err = h.octal.SubmitAttempt(h.dbc, ex.AttemptID, u.ID, true)
	requireAPIError(t, err, http.StatusNotFound, "attempt_not_open")

	closed, err := h.octal.GetOpenAttempt(h.dbc, ex.AttemptID, u.ID)
	require.NoError(t, err)
	require.Nil(t, closed)

	right, err := h.octal.SubmitAttempt(h.dbc, wrong.NextAttemptID, u.ID, true)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, right.NextAttemptID)

	events := h.emitter.events(realtime.EventKnowledgeChanged)
	require.Len(t, events, 2)
	require.Equal(t, realtime.UserChannel(u.ID), events[0].Channel)
}

func TestKnowledgeFollowsSubmissions(t *testing.T) {
	h := newHarness(t)
	graphID := seedQuizGraph(t, h)
	u := testutil.SeedUser(t, h.ctx, h.tx, "learner@example.com")

	answer := func(correct bool) {
		t.Helper()
		ex, err := h.octal.RequestExercise(h.dbc, graphID, u.ID, "recursion")
		require.NoError(t, err)
		_, err = h.octal.SubmitAttempt(h.dbc, ex.AttemptID, u.ID, correct)
		require.NoError(t, err)
	}

	k, err := h.knowledge.Infer(h.dbc, u.ID, uuid.Nil)
	require.NoError(t, err)
	require.Empty(t, k.Mastery)
	require.Empty(t, k.Summaries)

	answer(false)
	answer(true)
	k, err = h.knowledge.Infer(h.dbc, u.ID, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, inference.NotLearned, k.Mastery["recursion"])

	answer(true)
	k, err = h.knowledge.Infer(h.dbc, u.ID, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, inference.Learned, k.Mastery["recursion"])
	require.Len(t, k.Summaries, 1)
	require.Equal(t, inference.Summary{ConceptID: "recursion", Attempts: 3, Correct: 2, Streak: 2, State: inference.Learned}, k.Summaries[0])

	withGraph, err := h.knowledge.Infer(h.dbc, u.ID, graphID)
	require.NoError(t, err)
	require.Equal(t, inference.MasteryResult{
		"recursion":   inference.Learned,
		"memoization": inference.Unknown,
	}, withGraph.Mastery)

	_, err = h.knowledge.Infer(h.dbc, u.ID, uuid.New())
	requireAPIError(t, err, http.StatusNotFound, "graph_not_found")
}

func TestAppStateMergesMarks(t *testing.T) {
	h := newHarness(t)
	graphID := seedQuizGraph(t, h)
	u := testutil.SeedUser(t, h.ctx, h.tx, "learner@example.com")

	require.NoError(t, h.users.Mark(h.dbc, u.ID, "learned", "recursion"))
	require.NoError(t, h.users.Mark(h.dbc, u.ID, "starred", "recursion"))
	require.NoError(t, h.users.Mark(h.dbc, u.ID, "starred", "memoization"))

	state, err := h.octal.AppState(h.dbc, graphID, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"recursion", "memoization"}, state.Concepts.Keys())
	require.ElementsMatch(t, []AppConcept{
		{ID: "recursion", Learned: true, Starred: true},
		{ID: "memoization", Starred: true},
	}, state.UserConcepts)

	anon, err := h.octal.AppState(h.dbc, graphID, uuid.Nil)
	require.NoError(t, err)
	require.Empty(t, anon.UserConcepts)

	_, err = h.octal.AppState(h.dbc, uuid.New(), u.ID)
	requireAPIError(t, err, http.StatusNotFound, "graph_not_found")
}

func TestMergeMarks(t *testing.T) {
	got := mergeMarks([]string{"a", "b", "a"}, []string{"b", "c"})
	require.Equal(t, []AppConcept{
		{ID: "a", Learned: true},
		{ID: "b", Learned: true, Starred: true},
		{ID: "c", Starred: true},
	}, got)
}
