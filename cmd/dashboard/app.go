package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HFocko/Dashboard/internal/core/services/dashboard"
	"github.com/HFocko/Dashboard/internal/core/services/loader"
	"github.com/HFocko/Dashboard/internal/core/services/profiles"
	"github.com/HFocko/Dashboard/internal/infrastructure/cache"
	"github.com/HFocko/Dashboard/internal/infrastructure/database"
	"github.com/HFocko/Dashboard/internal/infrastructure/database/repositories"
	"github.com/HFocko/Dashboard/internal/infrastructure/parsers"
	"github.com/HFocko/Dashboard/internal/infrastructure/storage"
	"github.com/HFocko/Dashboard/internal/pkg/config"
	"github.com/HFocko/Dashboard/internal/pkg/logger"
	"github.com/HFocko/Dashboard/internal/pkg/metrics"
)

// healthReporter is implemented by both source caches
type healthReporter interface {
	Health(ctx context.Context) map[string]interface{}
}

// app holds the wired services shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	profiles *profiles.Registry
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics
	local    *storage.LocalStorage
	parsers  *parsers.ParserFactory
	cache    healthReporter
	loader   *loader.Service
	journal  *repositories.LoadJournalRepository
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Initialize(cfg.Environment)
	cfg.LogConfig(log)

	a := &app{
		cfg:      cfg,
		logger:   log,
		profiles: profiles.Default(),
		promReg:  prometheus.NewRegistry(),
		parsers:  parsers.NewParserFactory(nil),
	}
	a.metrics = metrics.New(a.promReg)

	local, err := storage.NewLocalStorage(&storage.LocalStorageConfig{BasePath: cfg.DataDir}, logger.NewServiceLogger("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	a.local = local

	// keep s3 an untyped nil when unset so the router reports it as unconfigured
	var s3 storage.Fetcher
	if cfg.S3Region != "" {
		fetcher, err := storage.NewS3Fetcher(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		}, logger.NewServiceLogger("s3"))
		if err != nil {
			return nil, err
		}
		s3 = fetcher
	}

	memory := cache.NewMemoryCache()
	var sourceCache loader.SourceCache = memory
	a.cache = memory
	if cfg.RedisEnabled {
		rc, err := cache.NewRedisCache(cfg, logger.NewServiceLogger("cache"))
		if err != nil {
			return nil, err
		}
		sourceCache = rc
		a.cache = rc
		a.closers = append(a.closers, rc.Close)
	}

	var journal loader.Journal
	if cfg.DBEnabled {
		db, err := database.NewPostgresDB(cfg, logger.NewServiceLogger("database"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(); err != nil {
			a.Close()
			return nil, err
		}
		a.journal = repositories.NewLoadJournalRepository(db.DB, logger.NewServiceLogger("journal"))
		journal = a.journal
	}

	a.loader = loader.NewService(loader.Config{
		Fetcher:  storage.NewRouter(local, s3),
		Parser:   a.parsers,
		Cache:    sourceCache,
		Journal:  journal,
		Profiles: a.profiles,
		Metrics:  a.metrics,
		CacheTTL: cfg.SourceCacheTTL,
	}, logger.NewServiceLogger("loader"))

	return a, nil
}

// coordinator creates a coordinator over the app's loader and registry
func (a *app) coordinator() *dashboard.Coordinator {
	return dashboard.NewCoordinator(
		a.loader,
		a.profiles,
		dashboard.OptionsFromConfig(a.cfg),
		a.metrics,
		logger.NewServiceLogger("dashboard"),
	)
}

// Close releases connections in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", slog.Any("error", err))
		}
	}
	a.closers = nil
}
