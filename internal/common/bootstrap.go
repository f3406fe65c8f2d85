package common

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/cache"
	"github.com/gamelens/gamelens/pkg/detect"
	"github.com/gamelens/gamelens/pkg/engine"
	"github.com/gamelens/gamelens/pkg/fetcher"
	"github.com/gamelens/gamelens/pkg/hltb"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/settings"
	"github.com/gamelens/gamelens/pkg/stability"
	"github.com/gamelens/gamelens/pkg/storage"
)

// Logger builds the CLI's JSON logger, quieted down to errors when asked.
func Logger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("quiet") {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Config loads the YAML config named by --config, or the defaults.
func Config(c *cli.Context) (models.Config, error) {
	path := c.String("config")
	if path == "" {
		return models.DefaultConfig(), nil
	}
	return models.LoadConfig(path)
}

// Runtime is everything an action needs, wired once.
type Runtime struct {
	Config   models.Config
	Logger   *slog.Logger
	Store    storage.Store
	Settings *settings.Service
	Perf     *perf.Monitor
	Database *hltb.DatabaseSource // nil without --db / database_path
	Engine   *engine.Engine

	closers []func() error
}

// Build assembles the full pipeline from CLI flags. Callers must Close.
func Build(c *cli.Context) (*Runtime, error) {
	logger := Logger(c)
	cfg, err := Config(c)
	if err != nil {
		return nil, err
	}
	if v := c.String("db"); v != "" {
		cfg.DatabasePath = v
	}
	if v := c.String("scraper-url"); v != "" {
		cfg.ScraperURL = v
	}
	if v := c.Duration("timeout"); v > 0 {
		cfg.FetchTimeout = v
	}

	rt := &Runtime{Config: cfg, Logger: logger}

	if path := c.String("store"); path != "" {
		sqliteStore, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		rt.Store = sqliteStore
		rt.closers = append(rt.closers, sqliteStore.Close)
	} else {
		rt.Store = storage.NewMemoryStore()
	}
	rt.Settings = settings.NewService(rt.Store)
	rt.Perf = perf.NewMonitor(0, cfg.LatencyTarget, logger)

	var sources []hltb.Source
	if cfg.DatabasePath != "" {
		db, err := hltb.OpenDatabase(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		rt.Database = db
		rt.closers = append(rt.closers, db.Close)
		sources = append(sources, db)
	}
	if cfg.ScraperURL != "" {
		sources = append(sources, hltb.NewScraper(cfg.ScraperURL, fetcher.NewFetcher(cfg.FetchTimeout)))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no enrichment source configured: pass --db and/or --scraper-url")
	}

	fetchCache := cache.New(hltb.NewChain(sources...), rt.Store, rt.Settings, rt.Perf, logger)
	monitor := stability.NewMonitor(cfg.StabilityInterval, cfg.StabilityMaxWait, cfg.StabilityThreshold, logger)
	detector := detect.NewDetector(cfg, monitor, rt.Perf, logger)
	rt.Engine = engine.New(cfg, detector, fetchCache, rt.Settings, rt.Perf, logger)

	return rt, nil
}

// Close releases every handle Build opened.
func (rt *Runtime) Close() {
	for _, fn := range rt.closers {
		if err := fn(); err != nil {
			rt.Logger.Warn("close failed", "error", err)
		}
	}
}
