package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/octal-backend/internal/http/handlers"
	httpMW "github.com/yungbote/octal-backend/internal/http/middleware"
	"github.com/yungbote/octal-backend/internal/observability"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	AuthHandler     *httpH.AuthHandler
	UserHandler     *httpH.UserHandler
	MapsHandler     *httpH.MapsHandler
	OctalHandler    *httpH.OctalHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := httpH.RegisterValidators(); err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "octal"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics", "/healthcheck"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	optional := api.Group("/")
	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		optional.Use(cfg.AuthMiddleware.OptionalAuth())
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Auth
	if cfg.AuthHandler != nil {
		optional.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/lazy", cfg.AuthHandler.Lazy)
	}

	// Maps: anyone may browse and author; study gating needs the caller.
	if cfg.MapsHandler != nil {
		api.GET("/maps", cfg.MapsHandler.List)
		api.POST("/maps", cfg.MapsHandler.Create)
		api.POST("/maps/validate", cfg.MapsHandler.Validate)
		optional.GET("/maps/:id", cfg.MapsHandler.Get)
		api.POST("/maps/:id/verify", cfg.MapsHandler.Verify)
		api.PUT("/maps/:id", cfg.MapsHandler.Update)
		protected.POST("/maps/:id/study", cfg.MapsHandler.JoinStudy)
		protected.POST("/maps/:id/study/surveys/:survey", cfg.MapsHandler.CompleteSurvey)
	}

	// User (Me)
	if cfg.UserHandler != nil {
		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.PATCH("/me", cfg.UserHandler.UpdateMe)
		protected.GET("/me/concepts/:kind", cfg.UserHandler.ListConcepts)
		protected.PUT("/me/concepts/:kind/:conceptID", cfg.UserHandler.AddConcept)
		protected.DELETE("/me/concepts/:kind/:conceptID", cfg.UserHandler.RemoveConcept)
	}

	// Quiz and knowledge
	if cfg.OctalHandler != nil {
		optional.GET("/octal/graphs/:graphID/app", cfg.OctalHandler.App)
		protected.GET("/octal/graphs/:graphID/exercises/:conceptID", cfg.OctalHandler.Exercise)
		protected.GET("/octal/attempts/:id", cfg.OctalHandler.GetAttempt)
		protected.POST("/octal/attempts/:id/:correct", cfg.OctalHandler.SubmitAttempt)
		protected.GET("/octal/knowledge", cfg.OctalHandler.Knowledge)
		protected.POST("/octal/exercises/seed", cfg.OctalHandler.SeedExercises)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		protected.GET("/events/stream", cfg.RealtimeHandler.Stream)
	}

	return r, nil
}
