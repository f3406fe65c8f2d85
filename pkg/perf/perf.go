// Package perf records operation timings, DOM-query counts and cache
// hit rates. Diagnostic only: nothing here ever fails or gates a caller.
package perf

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Benchmark is one recorded operation.
type Benchmark struct {
	Operation   string        `json:"operation" yaml:"operation"`
	StartTime   time.Time     `json:"start_time" yaml:"start_time"`
	EndTime     time.Time     `json:"end_time" yaml:"end_time"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	DOMQueries  int64         `json:"dom_queries" yaml:"dom_queries"`
	CacheHits   int64         `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses int64         `json:"cache_misses" yaml:"cache_misses"`
}

// Monitor is an explicit instrumentation context, passed to component
// constructors rather than reached through a global. Benchmarks live in a
// bounded ring: past capacity, the oldest is dropped.
type Monitor struct {
	mu            sync.Mutex
	buf           []Benchmark
	next          int
	full          bool
	latencyTarget time.Duration
	hits          int64
	misses        int64
	logger        *slog.Logger
}

const defaultCapacity = 128

// NewMonitor builds a Monitor retaining up to capacity benchmarks.
// Operations slower than latencyTarget log a warning and nothing more.
func NewMonitor(capacity int, latencyTarget time.Duration, logger *slog.Logger) *Monitor {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Monitor{
		buf:           make([]Benchmark, capacity),
		latencyTarget: latencyTarget,
		logger:        logger,
	}
}

// Nop returns a monitor that records into a minimal ring and logs nowhere.
// Meant for tests and callers that don't care about diagnostics.
func Nop() *Monitor {
	return NewMonitor(8, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Span tracks one in-progress operation.
type Span struct {
	m          *Monitor
	operation  string
	start      time.Time
	startHits  int64
	startMiss  int64
}

// Begin starts timing an operation. Callers must End the span.
func (m *Monitor) Begin(operation string) *Span {
	m.mu.Lock()
	hits, misses := m.hits, m.misses
	m.mu.Unlock()
	return &Span{m: m, operation: operation, start: time.Now(), startHits: hits, startMiss: misses}
}

// End finalizes the span. domQueries is the number of DOM queries the
// operation issued (callers read it off the page handle).
func (s *Span) End(domQueries int64) Benchmark {
	end := time.Now()
	s.m.mu.Lock()
	b := Benchmark{
		Operation:   s.operation,
		StartTime:   s.start,
		EndTime:     end,
		Duration:    end.Sub(s.start),
		DOMQueries:  domQueries,
		CacheHits:   s.m.hits - s.startHits,
		CacheMisses: s.m.misses - s.startMiss,
	}
	s.m.buf[s.m.next] = b
	s.m.next = (s.m.next + 1) % len(s.m.buf)
	if s.m.next == 0 {
		s.m.full = true
	}
	target := s.m.latencyTarget
	s.m.mu.Unlock()

	if target > 0 && b.Duration > target {
		s.m.logger.Warn("operation exceeded latency target",
			"operation", b.Operation, "duration", b.Duration, "target", target)
	}
	return b
}

// Track wraps fn with timing, the explicit higher-order form of Begin/End.
func (m *Monitor) Track(operation string, fn func() int64) Benchmark {
	span := m.Begin(operation)
	queries := fn()
	return span.End(queries)
}

// RecordCacheHit bumps the global hit counter.
func (m *Monitor) RecordCacheHit() {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

// RecordCacheMiss bumps the global miss counter.
func (m *Monitor) RecordCacheMiss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

// HitRate returns hits/(hits+misses), and 0 with no samples.
func (m *Monitor) HitRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.hits + m.misses
	if total == 0 {
		return 0
	}
	return float64(m.hits) / float64(total)
}

// Benchmarks returns the retained benchmarks, oldest first.
func (m *Monitor) Benchmarks() []Benchmark {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		out := make([]Benchmark, m.next)
		copy(out, m.buf[:m.next])
		return out
	}
	out := make([]Benchmark, 0, len(m.buf))
	out = append(out, m.buf[m.next:]...)
	out = append(out, m.buf[:m.next]...)
	return out
}
