package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/db"
	"github.com/yungbote/octal-backend/internal/http"
	"github.com/yungbote/octal-backend/internal/observability"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/realtime"
	"github.com/yungbote/octal-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Hub      *realtime.Hub

	dbService    *db.Service
	server       *http.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "octal",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.Migrate(dbService.DB()); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(log)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}
	if sqlDB, err := theDB.DB(); err == nil {
		clients.Metrics.RegisterDB(sqlDB, cfg.DB.Driver)
	}

	hub := realtime.NewHub(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(log, theDB, serviceset, hub)
	middleware := wireMiddleware(log, serviceset)
	router, err := wireRouter(log, cfg, clients, handlerset, middleware)
	if err != nil {
		clients.Close(context.Background())
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("init router: %w", err)
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Hub:          hub,
		dbService:    dbService,
		server:       http.NewServer(router, ":"+cfg.Port),
		otelShutdown: otelShutdown,
	}, nil
}

// Start forwards bus events into the local hub and seeds the exercise bank
// when SEED_EXERCISES is set.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Clients.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
		return fmt.Errorf("start bus forwarder: %w", err)
	}

	if a.Cfg.SeedExercises {
		bank, err := services.DefaultExerciseBank()
		if err != nil {
			return fmt.Errorf("load exercise bank: %w", err)
		}
		report, err := a.Services.Bank.Seed(dbctx.Context{Ctx: ctx}, bank)
		if err != nil {
			return fmt.Errorf("seed exercises: %w", err)
		}
		a.Log.Info("Exercise bank seeded", "concepts", report.Concepts, "exercises", report.Exercises, "responses", report.Responses)
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.server.Run()
}

// Close stops the server and releases every client. It is safe to call on a
// partially started app.
func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.Log.Warn("server shutdown failed", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close(ctx)
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
