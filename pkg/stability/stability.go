// Package stability gates extraction until the host page's key regions stop
// changing, so strategies don't read half-rendered markup.
package stability

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamelens/gamelens/pkg/pagedom"
)

// Monitor polls a page's content fingerprint until it holds steady or a
// deadline passes.
type Monitor struct {
	interval  time.Duration
	maxWait   time.Duration
	threshold int
	logger    *slog.Logger
}

// NewMonitor builds a Monitor. threshold is the number of consecutive
// identical fingerprints required to declare stability (minimum 2).
func NewMonitor(interval, maxWait time.Duration, threshold int, logger *slog.Logger) *Monitor {
	if threshold < 2 {
		threshold = 2
	}
	return &Monitor{interval: interval, maxWait: maxWait, threshold: threshold, logger: logger}
}

// WaitForStable polls the fingerprint at the configured interval. It
// returns true once threshold consecutive samples match, and false when
// maxWait (or ctx) elapses first. Timing out is a valid outcome, not an
// error: callers proceed with whatever the page currently holds and may
// flag the result as still loading.
func (m *Monitor) WaitForStable(ctx context.Context, page *pagedom.Page) bool {
	deadline := time.Now().Add(m.maxWait)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	last := page.Fingerprint()
	streak := 1

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if err := page.Reload(ctx); err != nil {
				m.logger.Warn("stability poll could not re-snapshot page", "url", page.URL(), "error", err)
				return false
			}
			fp := page.Fingerprint()
			if fp == last {
				streak++
				if streak >= m.threshold {
					return true
				}
			} else {
				last = fp
				streak = 1
			}
			if time.Now().After(deadline) {
				m.logger.Debug("content stability wait timed out", "url", page.URL(), "streak", streak)
				return false
			}
		}
	}
}
