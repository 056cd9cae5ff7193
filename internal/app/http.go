package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/http"
	httpH "github.com/yungbote/octal-backend/internal/http/handlers"
	httpMW "github.com/yungbote/octal-backend/internal/http/middleware"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Maps     *httpH.MapsHandler
	Octal    *httpH.OctalHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, serviceset Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:   httpH.NewHealthHandler(pinger),
		Auth:     httpH.NewAuthHandler(serviceset.Auth),
		User:     httpH.NewUserHandler(serviceset.User),
		Maps:     httpH.NewMapsHandler(serviceset.Maps),
		Octal:    httpH.NewOctalHandler(serviceset.Octal, serviceset.Knowledge, serviceset.Bank),
		Realtime: httpH.NewRealtimeHandler(log, hub),
	}
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, serviceset.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, clients Clients, handlers Handlers, middleware Middleware) (*gin.Engine, error) {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		Metrics:         clients.Metrics,
		ServiceName:     "octal",
		CORSOrigins:     cfg.CORSAllowOrigins,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		UserHandler:     handlers.User,
		MapsHandler:     handlers.Maps,
		OctalHandler:    handlers.Octal,
		RealtimeHandler: handlers.Realtime,
	})
}
