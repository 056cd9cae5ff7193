package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/modules/learning/graphcheck"
	"github.com/yungbote/octal-backend/internal/modules/learning/inference"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Maps      services.MapsService
	Octal     services.OctalService
	Knowledge services.KnowledgeService
	Bank      services.ExerciseBankService
	Notifier  services.LearnerNotifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")

	notifier := services.NewLearnerNotifier(services.NewBusEmitter(clients.Bus, clients.Metrics, log))
	validator := graphcheck.Validator{RequireAcyclic: cfg.GraphRequireAcyclic}
	inferrer := inference.Inferrer{StreakThreshold: cfg.MasteryStreakThreshold}

	maps := services.NewMapsService(db, log, reposet.Graph, reposet.Study, clients.Projector, validator, clients.Metrics)
	return Services{
		Auth:  services.NewAuthService(db, log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:  services.NewUserService(db, log, reposet.User, reposet.ConceptMark, notifier),
		Maps:  maps,
		Octal: services.NewOctalService(
			db, log, maps,
			reposet.Graph, reposet.ConceptMark,
			reposet.ExerciseConcept, reposet.Exercise, reposet.Response, reposet.Attempt,
			notifier, clients.Metrics,
		),
		Knowledge: services.NewKnowledgeService(db, log, reposet.Attempt, reposet.Graph, inferrer, clients.Metrics),
		Bank:      services.NewExerciseBankService(db, log, reposet.ExerciseConcept, reposet.Exercise, reposet.Response),
		Notifier:  notifier,
	}
}
