// Package engine drives the full pipeline for a page view: stability gate,
// detection, cached enrichment fetch, then the overlay's terminal state.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/cache"
	"github.com/gamelens/gamelens/pkg/detect"
	"github.com/gamelens/gamelens/pkg/hltb"
	"github.com/gamelens/gamelens/pkg/inject"
	"github.com/gamelens/gamelens/pkg/pagedom"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/settings"
)

// Engine owns the long-lived pieces: detector, cache and settings. Page
// sessions come and go per navigation.
type Engine struct {
	cfg      models.Config
	detector *detect.Detector
	cache    *cache.Cache
	settings *settings.Service
	perf     *perf.Monitor
	logger   *slog.Logger
}

// New assembles an Engine.
func New(cfg models.Config, detector *detect.Detector, c *cache.Cache, svc *settings.Service, pm *perf.Monitor, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, detector: detector, cache: c, settings: svc, perf: pm, logger: logger}
}

// Fetch resolves completion data for a title/app-id pair through the
// cache/dedup layer.
func (e *Engine) Fetch(ctx context.Context, title, appID string) (*models.HLTBData, error) {
	return e.cache.Get(ctx, hltb.Query{Title: title, AppID: appID})
}

// Cache exposes the cache layer for diagnostics.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// Perf exposes the instrumentation context.
func (e *Engine) Perf() *perf.Monitor { return e.perf }

// Session binds the engine to one page and owns that page's overlay. A
// new detection pass supersedes the previous one by tearing the overlay
// down before mounting again; stale passes are ignored, never aborted.
type Session struct {
	engine  *Engine
	page    *pagedom.Page
	manager *inject.Manager

	mu     sync.Mutex
	closed bool
}

// NewSession prepares a session for the page. When removal watching is
// configured, the overlay being ripped out schedules a fresh pass here —
// the injection layer only signals, recovery is driven from this side.
func (e *Engine) NewSession(page *pagedom.Page) *Session {
	s := &Session{engine: e, page: page}
	s.manager = inject.NewManager(page, inject.Options{
		WatchRemoval:  e.cfg.WatchRemoval,
		WatchInterval: e.cfg.WatchInterval,
		OnRemoved: func(pagedom.RemovalEvent) {
			go s.Refresh(context.Background())
		},
	}, e.logger)
	return s
}

// Refresh runs one full pass. The returned result reports what detection
// concluded; injection failures surface in the logs and the overlay state,
// not as errors.
func (s *Session) Refresh(ctx context.Context) models.DetectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.DetectionResult{Success: false, ErrorCode: models.ErrCodeInternal, ErrorDetail: "session closed"}
	}

	cfg, _ := s.engine.settings.Get(ctx)
	if !cfg.Enabled {
		s.manager.Cleanup()
		return models.DetectionResult{Success: false, ErrorCode: models.ErrCodeExcluded, ErrorDetail: "disabled in settings"}
	}

	result := s.engine.detector.Detect(ctx, s.page)
	if !result.Success {
		// "Couldn't detect this page" leaves the page untouched; it is not
		// an overlay error state.
		s.manager.Cleanup()
		return result
	}

	entity := result.Entity
	if !s.manager.MountLoading(entity.Title) {
		return result
	}

	data, err := s.engine.Fetch(ctx, entity.Title, entity.EntityID)
	switch {
	case errors.Is(err, hltb.ErrNotFound):
		s.manager.UpdateData(&models.HLTBData{}, entity.Title)
	case err != nil:
		s.engine.logger.Error("enrichment fetch failed", "entity_id", entity.EntityID, "error", err)
		s.manager.ShowError("Could not load completion times")
	default:
		s.manager.UpdateData(data, entity.Title)
	}
	return result
}

// IsActive reports whether the session's overlay is mounted.
func (s *Session) IsActive() bool { return s.manager.IsActive() }

// Close tears the overlay down for good.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.manager.Destroy()
}
