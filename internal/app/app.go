package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/docintel-backend/internal/data/db"
	docrepos "github.com/yungbote/docintel-backend/internal/data/repos/documents"
	apphttp "github.com/yungbote/docintel-backend/internal/http"
	httpH "github.com/yungbote/docintel-backend/internal/http/handlers"
	"github.com/yungbote/docintel-backend/internal/modules/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/processor"
	"github.com/yungbote/docintel-backend/internal/modules/news"
	"github.com/yungbote/docintel-backend/internal/observability"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/storage"
)

type Repos struct {
	Files      docrepos.FileRepo
	Categories docrepos.CategoryRepo
}

// App is the API server with its background processor.
type App struct {
	*Engine

	DB        *gorm.DB
	Repos     Repos
	Store     storage.Store
	Processor *processor.Processor
	Server    *apphttp.Server

	pg            *db.PostgresService
	otelShutdown  func(context.Context) error
	stopProcessor context.CancelFunc
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
	metrics := observability.Init(log)

	engine, err := NewEngine(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Engine: engine, otelShutdown: otelShutdown}

	pg, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.pg = pg
	a.DB = pg.DB()
	if err := db.AutoMigrateAll(a.DB); err != nil {
		a.Close()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	log.Info("Wiring repos...")
	a.Repos = Repos{
		Files:      docrepos.NewFileRepo(a.DB, log),
		Categories: docrepos.NewCategoryRepo(a.DB, log),
	}

	store, err := storage.New(cfg.Storage, engine.Clients.Bucket, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.Store = store
	a.Processor = processor.New(engine.Pipeline, a.Repos.Files, a.Repos.Categories, store, cfg.Processor, log)

	feed, err := loadNews(log, cfg.NewsDatasetPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Info("Wiring handlers...")
	uc := documents.NewUsecases(documents.UsecasesDeps{
		Log:        log,
		Files:      a.Repos.Files,
		Categories: a.Repos.Categories,
		Store:      store,
		Queue:      a.Processor,
	})
	sqlDB, err := a.DB.DB()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	a.Server = apphttp.NewServer(apphttp.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		AllowOrigin:     cfg.CORSOrigins,
		Metrics:         metrics,
		HealthHandler:   httpH.NewHealthHandler(sqlDB),
		CategoryHandler: httpH.NewCategoryHandler(log, uc),
		FileHandler:     httpH.NewFileHandler(log, uc, cfg.MaxUploadBytes),
		NewsHandler:     httpH.NewNewsHandler(log, feed),
	})
	return a, nil
}

func loadNews(log *logger.Logger, path string) (*news.Feed, error) {
	if path == "" {
		log.Warn("NEWS_DATASET_PATH not set; news feed is empty")
		return news.New(nil, log), nil
	}
	feed, err := news.Load(path, log)
	if err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}
	return feed, nil
}

// Run starts the processor and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	procCtx, cancel := context.WithCancel(context.Background())
	a.stopProcessor = cancel
	a.Processor.Start(procCtx)

	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

// Close drains the processor, then releases clients and the database.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Processor != nil {
		a.Processor.Stop()
	}
	if a.stopProcessor != nil {
		a.stopProcessor()
	}
	a.Engine.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
}
