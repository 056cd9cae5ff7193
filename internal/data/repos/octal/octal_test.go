package octal

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/data/repos/testutil"
	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
)

func TestExerciseConceptRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewExerciseConceptRepo(db, testutil.Logger(t))

	first, err := repo.GetOrCreate(dbc, "sets", "")
	if err != nil || first == nil {
		t.Fatalf("GetOrCreate: ec=%v err=%v", first, err)
	}
	if first.Name != "sets" {
		t.Fatalf("GetOrCreate: name defaulted to %q", first.Name)
	}
	again, err := repo.GetOrCreate(dbc, "sets", "Sets")
	if err != nil || again.ID != first.ID {
		t.Fatalf("GetOrCreate (again): ec=%+v err=%v", again, err)
	}

	missing, err := repo.GetByKey(dbc, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByKey(missing): ec=%v err=%v", missing, err)
	}
}

func TestExerciseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	exercises := NewExerciseRepo(db, testutil.Logger(t))
	responses := NewResponseRepo(db, testutil.Logger(t))

	sets := testutil.SeedExerciseConcept(t, ctx, tx, "sets")
	empty := testutil.SeedExerciseConcept(t, ctx, tx, "empty")

	ex, err := exercises.GetOrCreateByQuestion(dbc, "What is {1} ∪ {2}?", "")
	if err != nil {
		t.Fatalf("GetOrCreateByQuestion: %v", err)
	}
	if ex.QType != "mc" {
		t.Fatalf("GetOrCreateByQuestion: qtype=%q", ex.QType)
	}
	same, err := exercises.GetOrCreateByQuestion(dbc, "What is {1} ∪ {2}?", "mc")
	if err != nil || same.ID != ex.ID {
		t.Fatalf("GetOrCreateByQuestion (again): ex=%+v err=%v", same, err)
	}
	if err := exercises.LinkConcepts(dbc, ex, []*types.ExerciseConcept{sets}); err != nil {
		t.Fatalf("LinkConcepts: %v", err)
	}

	if err := responses.Upsert(dbc, []*types.Response{
		{ExerciseID: ex.ID, Response: "{1}", Distract: true},
		{ExerciseID: ex.ID, Response: "{1, 2}"},
		{ExerciseID: ex.ID, Response: "{}", Distract: true},
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := responses.Upsert(dbc, []*types.Response{
		{ExerciseID: ex.ID, Response: "{}", Distract: false},
	}); err != nil {
		t.Fatalf("Upsert (update): %v", err)
	}

	got, err := exercises.RandomForConcept(dbc, sets.ID)
	if err != nil || got == nil || got.ID != ex.ID {
		t.Fatalf("RandomForConcept: ex=%v err=%v", got, err)
	}
	none, err := exercises.RandomForConcept(dbc, empty.ID)
	if err != nil || none != nil {
		t.Fatalf("RandomForConcept(empty): ex=%v err=%v", none, err)
	}

	rows, err := responses.ListByExercise(dbc, ex.ID)
	if err != nil {
		t.Fatalf("ListByExercise: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("ListByExercise: expected 3 rows, got %d", len(rows))
	}
	if rows[0].Distract || rows[1].Distract || !rows[2].Distract {
		t.Fatalf("ListByExercise: answers should come before distractors: %+v", rows)
	}

	n, err := exercises.Count(dbc)
	if err != nil || n != 1 {
		t.Fatalf("Count: n=%d err=%v", n, err)
	}
}

func TestExerciseAttemptRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewExerciseAttemptRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "attempts@example.com")
	other := testutil.SeedUser(t, ctx, tx, "other@example.com")
	ec := testutil.SeedExerciseConcept(t, ctx, tx, "sets")
	ex := testutil.SeedExercise(t, ctx, tx, ec, "q1", "a", "b")

	open, err := repo.FindOrCreateOpen(dbc, u.ID, ec, ex.ID)
	if err != nil || open == nil {
		t.Fatalf("FindOrCreateOpen: a=%v err=%v", open, err)
	}
	if open.ConceptKey != "sets" || open.Submitted {
		t.Fatalf("FindOrCreateOpen: unexpected attempt %+v", open)
	}
	recycled, err := repo.FindOrCreateOpen(dbc, u.ID, ec, ex.ID)
	if err != nil || recycled.ID != open.ID {
		t.Fatalf("FindOrCreateOpen should recycle: a=%+v err=%v", recycled, err)
	}

	got, err := repo.GetOpen(dbc, open.ID, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetOpen: a=%v err=%v", got, err)
	}
	foreign, err := repo.GetOpen(dbc, open.ID, other.ID)
	if err != nil || foreign != nil {
		t.Fatalf("GetOpen(other user): a=%v err=%v", foreign, err)
	}

	if denied, err := repo.Submit(dbc, open.ID, other.ID, true); err != nil || denied != nil {
		t.Fatalf("Submit(other user): a=%v err=%v", denied, err)
	}
	submitted, err := repo.Submit(dbc, open.ID, u.ID, false)
	if err != nil || submitted == nil {
		t.Fatalf("Submit: a=%v err=%v", submitted, err)
	}
	if !submitted.Submitted || submitted.Correct || submitted.SubmittedAt == nil {
		t.Fatalf("Submit: unexpected attempt %+v", submitted)
	}
	if twice, err := repo.Submit(dbc, open.ID, u.ID, true); err != nil || twice != nil {
		t.Fatalf("Submit (twice): a=%v err=%v", twice, err)
	}
	if closed, err := repo.GetOpen(dbc, open.ID, u.ID); err != nil || closed != nil {
		t.Fatalf("GetOpen after submit: a=%v err=%v", closed, err)
	}

	next, err := repo.FindOrCreateOpen(dbc, u.ID, ec, ex.ID)
	if err != nil || next.ID == open.ID {
		t.Fatalf("FindOrCreateOpen after submit should create: a=%+v err=%v", next, err)
	}
	if _, err := repo.Submit(dbc, next.ID, u.ID, true); err != nil {
		t.Fatalf("Submit next: %v", err)
	}

	history, err := repo.ListSubmitted(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListSubmitted: %v", err)
	}
	if len(history) != 2 || history[0].ID != open.ID || history[1].ID != next.ID {
		t.Fatalf("ListSubmitted: unexpected order %+v", history)
	}
	if history[0].Correct || !history[1].Correct {
		t.Fatalf("ListSubmitted: correctness lost %+v", history)
	}

	if _, err := repo.FindOrCreateOpen(dbc, uuid.Nil, ec, ex.ID); err == nil {
		t.Fatalf("FindOrCreateOpen(nil user): expected error")
	}
}

func TestExerciseAttemptOpenIndex(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	u := testutil.SeedUser(t, ctx, tx, "index@example.com")
	ec := testutil.SeedExerciseConcept(t, ctx, tx, "sets")
	ex := testutil.SeedExercise(t, ctx, tx, ec, "q1", "a")

	first := &types.ExerciseAttempt{UserID: u.ID, ExerciseID: ex.ID, ExerciseConceptID: ec.ID, ConceptKey: "sets"}
	if err := tx.WithContext(ctx).Create(first).Error; err != nil {
		t.Fatalf("create first open attempt: %v", err)
	}
	dup := &types.ExerciseAttempt{UserID: u.ID, ExerciseID: ex.ID, ExerciseConceptID: ec.ID, ConceptKey: "sets"}
	if err := tx.WithContext(ctx).Create(dup).Error; err == nil {
		t.Fatalf("expected the partial unique index to reject a second open attempt")
	}
}
