// Package inject places the enrichment overlay into the host page and
// keeps it honest: idempotent anchor selection, explicit terminal states,
// and a removal watch that signals instead of silently re-injecting.
package inject

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/pagedom"
)

// Position says where the overlay lands relative to the anchor.
type Position string

const (
	PositionBefore  Position = "before"
	PositionAfter   Position = "after"
	PositionPrepend Position = "prepend"
	PositionAppend  Position = "append"
)

// InjectionPoint is a candidate anchor. Lower priority wins; a false
// Condition disqualifies the point without consuming its priority slot.
type InjectionPoint struct {
	Selector  string
	Position  Position
	Priority  int
	Condition func(p *pagedom.Page) bool
}

// defaultPoints are the built-in anchors, store page first, then community
// hub, then generic headings.
var defaultPoints = []InjectionPoint{
	{Selector: ".game_purchase_action", Position: PositionBefore, Priority: 10},
	{Selector: ".glance_ctn", Position: PositionAfter, Priority: 20},
	{Selector: ".apphub_HomeHeaderContent", Position: PositionAfter, Priority: 30},
	{Selector: ".page_title_area", Position: PositionAfter, Priority: 40},
	{Selector: "h1", Position: PositionAfter, Priority: 50},
}

// Options tune a Manager.
type Options struct {
	// CustomPoints are merged with the built-in list before sorting.
	CustomPoints []InjectionPoint
	// WatchRemoval enables the disappearance watch after a mount.
	WatchRemoval  bool
	WatchInterval time.Duration
	Theme         string
	// OnRemoved is called (at most once per mount) when the overlay's root
	// leaves the document. The manager deliberately does not re-inject: it
	// has no data to re-render, so recovery is the caller's move.
	OnRemoved func(pagedom.RemovalEvent)
}

// Manager owns the mounted display instance for one page.
type Manager struct {
	page   *pagedom.Page
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	display   *display
	watch     *pagedom.Watch
	destroyed bool
}

// NewManager builds a Manager for the page.
func NewManager(page *pagedom.Page, opts Options, logger *slog.Logger) *Manager {
	if opts.WatchInterval <= 0 {
		opts.WatchInterval = 50 * time.Millisecond
	}
	if opts.Theme == "" {
		opts.Theme = "auto"
	}
	return &Manager{page: page, opts: opts, logger: logger}
}

// InjectHLTBData tears down any prior overlay, mounts a fresh one at the
// best resolvable injection point, and pushes the data (or the explicit
// no-data state). Returns false, without throwing, when no point resolves.
func (m *Manager) InjectHLTBData(data *models.HLTBData, title string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return false
	}

	m.teardownLocked()

	point, ok := m.selectPoint()
	if !ok {
		m.logger.Warn("no injection point matched", "url", m.page.URL())
		return false
	}

	disp, ok := mountDisplay(m.page, point, m.opts.Theme)
	if !ok {
		m.logger.Warn("anchor disappeared before mount", "selector", point.Selector)
		return false
	}
	m.display = disp

	if data.HasData() {
		disp.showData(data, title)
	} else {
		// All-null data is its own terminal state, not a fetch error.
		disp.showNoData(title)
	}

	if m.opts.WatchRemoval {
		m.startWatchLocked()
	}
	return true
}

// selectPoint merges custom and built-in points, sorts ascending by
// priority, skips points whose condition vetoes them, and returns the
// first whose selector resolves.
func (m *Manager) selectPoint() (InjectionPoint, bool) {
	points := make([]InjectionPoint, 0, len(defaultPoints)+len(m.opts.CustomPoints))
	points = append(points, m.opts.CustomPoints...)
	points = append(points, defaultPoints...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Priority < points[j].Priority })

	for _, pt := range points {
		if pt.Condition != nil && !pt.Condition(m.page) {
			continue
		}
		if m.page.Exists(pt.Selector) {
			return pt, true
		}
	}
	return InjectionPoint{}, false
}

func (m *Manager) startWatchLocked() {
	watch := m.page.WatchRemoval(rootSelector, m.opts.WatchInterval)
	m.watch = watch

	// The forwarder exits when the watch is stopped or after the first
	// removal; callbacks run outside the manager lock.
	go func() {
		for ev := range watch.Events {
			m.logger.Info("overlay removed from document", "selector", ev.Selector)
			if m.opts.OnRemoved != nil {
				m.opts.OnRemoved(ev)
			}
			return
		}
	}()
}

// ShowLoading delegates to the mounted display; no-op without one.
func (m *Manager) ShowLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed || m.display == nil {
		return
	}
	m.display.showLoading()
}

// ShowError delegates to the mounted display; no-op without one.
func (m *Manager) ShowError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed || m.display == nil {
		return
	}
	m.display.showError(msg)
}

// UpdateData re-renders the mounted display with new data; no-op without
// one.
func (m *Manager) UpdateData(data *models.HLTBData, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed || m.display == nil {
		return
	}
	if data.HasData() {
		m.display.showData(data, title)
	} else {
		m.display.showNoData(title)
	}
}

// MountLoading mounts a fresh overlay already in the loading state. Used
// at the start of a page view, before data exists.
func (m *Manager) MountLoading(title string) bool {
	if !m.InjectHLTBData(&models.HLTBData{}, title) {
		return false
	}
	m.ShowLoading()
	return true
}

// IsActive reports whether a display is currently mounted.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.destroyed && m.display != nil
}

// Cleanup removes the overlay and stops the watch, leaving the manager
// usable for the next mount.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// Destroy is terminal: the overlay is removed and every later call becomes
// a no-op.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	m.destroyed = true
}

func (m *Manager) teardownLocked() {
	if m.watch != nil {
		// Stop waits only for the poll loop; the event forwarder drains on
		// channel close, so stopping under the lock cannot deadlock.
		go m.watch.Stop()
		m.watch = nil
	}
	if m.display != nil {
		m.display.remove()
		m.display = nil
	}
}
