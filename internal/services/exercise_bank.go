package services

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/repos"
	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

//go:embed exercise_bank.yaml
var defaultExerciseBank []byte

// BankExercise is one multiple-choice question: question html, concept keys,
// the right answer and the distractors.
type BankExercise struct {
	Question    string   `yaml:"q"`
	Concepts    []string `yaml:"c"`
	Answer      string   `yaml:"a"`
	Distractors []string `yaml:"d"`
}

type ExerciseBank struct {
	// Concepts maps concept key to display name.
	Concepts  map[string]string `yaml:"concepts"`
	Exercises []BankExercise    `yaml:"exercises"`
}

type SeedReport struct {
	Concepts  int `json:"concepts"`
	Exercises int `json:"exercises"`
	Responses int `json:"responses"`
}

// DefaultExerciseBank returns the bank compiled into the binary.
func DefaultExerciseBank() (*ExerciseBank, error) {
	return LoadExerciseBank(bytes.NewReader(defaultExerciseBank))
}

func LoadExerciseBank(r io.Reader) (*ExerciseBank, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var bank ExerciseBank
	if err := dec.Decode(&bank); err != nil {
		return nil, fmt.Errorf("decode exercise bank: %w", err)
	}
	for i, ex := range bank.Exercises {
		if strings.TrimSpace(ex.Question) == "" {
			return nil, fmt.Errorf("exercise %d: question is required", i)
		}
		if strings.TrimSpace(ex.Answer) == "" {
			return nil, fmt.Errorf("exercise %d: answer is required", i)
		}
		if len(ex.Concepts) == 0 {
			return nil, fmt.Errorf("exercise %d: at least one concept is required", i)
		}
	}
	return &bank, nil
}

type ExerciseBankService interface {
	// Seed loads bank into the exercise tables. Reseeding the same bank is a
	// no-op apart from distractor flags.
	Seed(dbc dbctx.Context, bank *ExerciseBank) (*SeedReport, error)
}

type exerciseBankService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	exerciseConceptRepo repos.ExerciseConceptRepo
	exerciseRepo        repos.ExerciseRepo
	responseRepo        repos.ResponseRepo
}

func NewExerciseBankService(
	db *gorm.DB,
	log *logger.Logger,
	exerciseConceptRepo repos.ExerciseConceptRepo,
	exerciseRepo repos.ExerciseRepo,
	responseRepo repos.ResponseRepo,
) ExerciseBankService {
	return &exerciseBankService{
		db:                  db,
		log:                 log.With("service", "ExerciseBankService"),
		exerciseConceptRepo: exerciseConceptRepo,
		exerciseRepo:        exerciseRepo,
		responseRepo:        responseRepo,
	}
}

func (bs *exerciseBankService) Seed(dbc dbctx.Context, bank *ExerciseBank) (*SeedReport, error) {
	if bank == nil {
		return &SeedReport{}, nil
	}
	report := &SeedReport{}
	err := dbc.DB(bs.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		concepts := map[string]*types.ExerciseConcept{}
		conceptFor := func(key string) (*types.ExerciseConcept, error) {
			if ec, ok := concepts[key]; ok {
				return ec, nil
			}
			name := bank.Concepts[key]
			if name == "" {
				name = key
			}
			ec, err := bs.exerciseConceptRepo.GetOrCreate(inner, key, name)
			if err != nil {
				return nil, fmt.Errorf("concept %q: %w", key, err)
			}
			concepts[key] = ec
			return ec, nil
		}

		for _, item := range bank.Exercises {
			ex, err := bs.exerciseRepo.GetOrCreateByQuestion(inner, item.Question, "mc")
			if err != nil {
				return fmt.Errorf("exercise: %w", err)
			}
			linked := make([]*types.ExerciseConcept, 0, len(item.Concepts))
			for _, key := range item.Concepts {
				ec, err := conceptFor(strings.TrimSpace(key))
				if err != nil {
					return err
				}
				linked = append(linked, ec)
			}
			if err := bs.exerciseRepo.LinkConcepts(inner, ex, linked); err != nil {
				return fmt.Errorf("link concepts: %w", err)
			}

			rows := []*types.Response{{ExerciseID: ex.ID, Response: item.Answer}}
			for _, d := range item.Distractors {
				rows = append(rows, &types.Response{ExerciseID: ex.ID, Response: d, Distract: true})
			}
			if err := bs.responseRepo.Upsert(inner, rows); err != nil {
				return fmt.Errorf("responses: %w", err)
			}
			report.Exercises++
			report.Responses += len(rows)
		}
		report.Concepts = len(concepts)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed exercise bank: %w", err)
	}
	bs.log.Info("exercise bank seeded", "concepts", report.Concepts, "exercises", report.Exercises, "responses", report.Responses)
	return report, nil
}
