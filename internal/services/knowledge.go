package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/repos"
	"github.com/yungbote/octal-backend/internal/modules/learning/inference"
	"github.com/yungbote/octal-backend/internal/observability"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type Knowledge struct {
	Mastery   inference.MasteryResult `json:"mastery"`
	Summaries []inference.Summary     `json:"summaries"`
}

type KnowledgeService interface {
	// Infer runs mastery inference over userID's submitted attempts. With a
	// non-nil graphID, graph concepts without attempts are reported unknown.
	Infer(dbc dbctx.Context, userID, graphID uuid.UUID) (*Knowledge, error)
}

type knowledgeService struct {
	db          *gorm.DB
	log         *logger.Logger
	attemptRepo repos.ExerciseAttemptRepo
	graphRepo   repos.GraphRepo
	inferrer    inference.Inferrer
	metrics     *observability.Metrics
}

func NewKnowledgeService(
	db *gorm.DB,
	log *logger.Logger,
	attemptRepo repos.ExerciseAttemptRepo,
	graphRepo repos.GraphRepo,
	inferrer inference.Inferrer,
	metrics *observability.Metrics,
) KnowledgeService {
	return &knowledgeService{
		db:          db,
		log:         log.With("service", "KnowledgeService"),
		attemptRepo: attemptRepo,
		graphRepo:   graphRepo,
		inferrer:    inferrer,
		metrics:     metrics,
	}
}

func (ks *knowledgeService) Infer(dbc dbctx.Context, userID, graphID uuid.UUID) (*Knowledge, error) {
	attempts, err := ks.attemptRepo.ListSubmitted(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	records := make([]inference.AttemptRecord, 0, len(attempts))
	for _, a := range attempts {
		if a.ConceptKey == "" {
			continue
		}
		records = append(records, inference.AttemptRecord{ConceptID: a.ConceptKey, Correct: a.Correct})
	}

	var mastery inference.MasteryResult
	if graphID != uuid.Nil {
		g, err := ks.graphRepo.GetByID(dbc, graphID)
		if err != nil {
			return nil, fmt.Errorf("load graph: %w", err)
		}
		if g == nil {
			return nil, apierr.NotFound("graph_not_found", nil)
		}
		mastery = ks.inferrer.InferWithConcepts(records, GraphFromRows(g).Keys())
	} else {
		mastery = ks.inferrer.Infer(records)
	}

	ks.metrics.ObserveInference(map[string]int{
		string(inference.Learned):    mastery.Count(inference.Learned),
		string(inference.NotLearned): mastery.Count(inference.NotLearned),
		string(inference.Unknown):    mastery.Count(inference.Unknown),
	})
	summaries := ks.inferrer.Summaries(records)
	if summaries == nil {
		summaries = []inference.Summary{}
	}
	return &Knowledge{Mastery: mastery, Summaries: summaries}, nil
}
