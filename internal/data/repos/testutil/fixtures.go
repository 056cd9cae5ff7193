package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/octal-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedGraph stores a graph with one concept per key and edges between
// consecutive keys.
func SeedGraph(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, keys ...string) *types.Graph {
	tb.Helper()
	g := &types.Graph{ID: uuid.New(), Name: name, Public: true, Secret: "x"}
	if err := tx.WithContext(ctx).Omit("Concepts", "Edges").Create(g).Error; err != nil {
		tb.Fatalf("seed graph: %v", err)
	}
	for i, k := range keys {
		c := &types.Concept{GraphID: g.ID, Key: k, Title: k, SortIndex: i}
		if err := tx.WithContext(ctx).Create(c).Error; err != nil {
			tb.Fatalf("seed concept: %v", err)
		}
		g.Concepts = append(g.Concepts, *c)
		if i == 0 {
			continue
		}
		e := &types.ConceptEdge{GraphID: g.ID, FromKey: keys[i-1], ToKey: k, SortIndex: i - 1}
		if err := tx.WithContext(ctx).Create(e).Error; err != nil {
			tb.Fatalf("seed edge: %v", err)
		}
		g.Edges = append(g.Edges, *e)
	}
	return g
}

// SeedExercise stores an exercise linked to ec with one right answer and the
// given distractors.
func SeedExercise(tb testing.TB, ctx context.Context, tx *gorm.DB, ec *types.ExerciseConcept, question, answer string, distractors ...string) *types.Exercise {
	tb.Helper()
	ex := &types.Exercise{ID: uuid.New(), Question: question, QType: "mc"}
	if err := tx.WithContext(ctx).Omit("Concepts").Create(ex).Error; err != nil {
		tb.Fatalf("seed exercise: %v", err)
	}
	if err := tx.WithContext(ctx).Model(ex).Association("Concepts").Append(ec); err != nil {
		tb.Fatalf("link exercise concept: %v", err)
	}
	rows := []*types.Response{{ExerciseID: ex.ID, Response: answer}}
	for _, d := range distractors {
		rows = append(rows, &types.Response{ExerciseID: ex.ID, Response: d, Distract: true})
	}
	if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
		tb.Fatalf("seed responses: %v", err)
	}
	return ex
}

func SeedExerciseConcept(tb testing.TB, ctx context.Context, tx *gorm.DB, key string) *types.ExerciseConcept {
	tb.Helper()
	ec := &types.ExerciseConcept{ID: uuid.New(), ConceptKey: key, Name: key}
	if err := tx.WithContext(ctx).Create(ec).Error; err != nil {
		tb.Fatalf("seed exercise concept: %v", err)
	}
	return ec
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
