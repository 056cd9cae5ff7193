package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/octal-backend/internal/data/repos"
	"github.com/yungbote/octal-backend/internal/data/repos/testutil"
)

func TestDefaultExerciseBank(t *testing.T) {
	bank, err := DefaultExerciseBank()
	require.NoError(t, err)
	require.NotEmpty(t, bank.Exercises)
	for _, ex := range bank.Exercises {
		for _, key := range ex.Concepts {
			require.Contains(t, bank.Concepts, key, "exercise %q", ex.Question)
		}
	}
}

func TestLoadExerciseBankRejectsBadInput(t *testing.T) {
	_, err := LoadExerciseBank(strings.NewReader("exercises:\n  - q: x\n    c: [a]\n"))
	require.ErrorContains(t, err, "answer is required")

	_, err = LoadExerciseBank(strings.NewReader("exercises:\n  - q: x\n    a: y\n"))
	require.ErrorContains(t, err, "at least one concept")

	_, err = LoadExerciseBank(strings.NewReader("exercises:\n  - q: x\n    a: y\n    c: [a]\n    hint: z\n"))
	require.Error(t, err)
}

func TestSeedExerciseBankIsIdempotent(t *testing.T) {
	h := newHarness(t)
	bank, err := LoadExerciseBank(strings.NewReader(`
concepts:
  recursion: Recursion
exercises:
  - q: "Q1"
    c: [recursion, loops]
    a: "yes"
    d: ["no", "maybe"]
  - q: "Q2"
    c: [recursion]
    a: "right"
`))
	require.NoError(t, err)

	report, err := h.bank.Seed(h.dbc, bank)
	require.NoError(t, err)
	require.Equal(t, SeedReport{Concepts: 2, Exercises: 2, Responses: 4}, *report)

	_, err = h.bank.Seed(h.dbc, bank)
	require.NoError(t, err)

	log := testutil.Logger(t)
	exRepo := repos.NewExerciseRepo(h.tx, log)
	n, err := exRepo.Count(h.dbc)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	ecRepo := repos.NewExerciseConceptRepo(h.tx, log)
	loops, err := ecRepo.GetByKey(h.dbc, "loops")
	require.NoError(t, err)
	require.NotNil(t, loops)
	require.Equal(t, "loops", loops.Name)
	rec, err := ecRepo.GetByKey(h.dbc, "recursion")
	require.NoError(t, err)
	require.Equal(t, "Recursion", rec.Name)

	ex, err := exRepo.RandomForConcept(h.dbc, loops.ID)
	require.NoError(t, err)
	require.NotNil(t, ex)
	require.Equal(t, "Q1", ex.Question)

	responses, err := repos.NewResponseRepo(h.tx, log).ListByExercise(h.dbc, ex.ID)
	require.NoError(t, err)
	require.Len(t, responses, 3)
	require.Equal(t, "yes", responses[0].Response)
	require.False(t, responses[0].Distract)
}
