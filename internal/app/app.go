package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/xapi-mis-backend/internal/data/db"
	"github.com/yungbote/xapi-mis-backend/internal/http"
	"github.com/yungbote/xapi-mis-backend/internal/observability"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *http.Server

	otelShutdown func(context.Context) error
}

// NewLogger builds the process logger for cfg.LogMode.
func NewLogger(cfg Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDB connects to the configured datastore and migrates the schema.
func OpenDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	theDB, err := db.Open(cfg.DBOptions(), log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = db.Close(theDB)
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return theDB, nil
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	cfg.Log(log)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics, err := observability.NewMetrics(cfg.Otel.ServiceName, nil)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	theDB, err := OpenDB(cfg, log)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}
	if err := metrics.RegisterDBStats(theDB); err != nil {
		log.Warn("db pool metrics unavailable", "error", err)
	}

	clients := wireClients(log, cfg)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, clients, reposet, metrics)
	handlerset := wireHandlers(log, serviceset)
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	a.Log.Info("server listening", "address", a.Cfg.Address())
	return a.Server.Run(ctx, a.Cfg.Address())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if err := a.Clients.Close(); err != nil {
		a.Log.Warn("close clients", "error", err)
	}
	if err := db.Close(a.DB); err != nil {
		a.Log.Warn("close database", "error", err)
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
