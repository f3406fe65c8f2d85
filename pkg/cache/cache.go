// Package cache sits between detection and data retrieval: fresh entries
// are served without touching the source, and concurrent misses for one key
// collapse into a single underlying fetch.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/extract"
	"github.com/gamelens/gamelens/pkg/hltb"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/settings"
	"github.com/gamelens/gamelens/pkg/storage"
)

// aggregateKey is the single storage key holding the whole cache, so a
// full clear is one storage remove.
const aggregateKey = "hltb_cache"

// Cache fronts an enrichment source with TTL caching and fetch dedup.
type Cache struct {
	source   hltb.Source
	store    storage.Store
	settings *settings.Service
	perf     *perf.Monitor
	logger   *slog.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	hits    int64
	misses  int64
}

// New builds a Cache over source, hydrating previously persisted entries
// best-effort.
func New(source hltb.Source, store storage.Store, svc *settings.Service, pm *perf.Monitor, logger *slog.Logger) *Cache {
	c := &Cache{
		source:   source,
		store:    store,
		settings: svc,
		perf:     pm,
		logger:   logger,
		entries:  make(map[string]*models.CacheEntry),
	}
	c.hydrate()
	return c
}

func (c *Cache) hydrate() {
	data, ok, err := c.store.Get(context.Background(), aggregateKey)
	if err != nil {
		c.logger.Warn("could not hydrate cache from storage", "error", err)
		return
	}
	if !ok {
		return
	}
	var entries map[string]*models.CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("discarding unreadable persisted cache", "error", err)
		return
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

// Get returns the record for the entity, from cache when fresh. Concurrent
// callers for one uncached key share exactly one underlying fetch; the
// in-flight marker is cleared on completion whether the fetch succeeded or
// failed, so no key can get permanently stuck.
func (c *Cache) Get(ctx context.Context, q hltb.Query) (*models.HLTBData, error) {
	key := extract.CacheKey(q.Title, q.AppID)

	// TTL and the cache toggle are re-read from settings on every lookup,
	// not baked in at construction.
	cfg, _ := c.settings.Get(ctx)
	ttl := time.Duration(cfg.CacheDurationHours) * time.Hour

	if cfg.CacheEnabled {
		if data, ok := c.lookup(key); ok {
			c.perf.RecordCacheHit()
			return data, nil
		}
	}
	c.perf.RecordCacheMiss()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		data, err := c.source.Fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		if cfg.CacheEnabled {
			c.put(ctx, key, data, ttl)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.HLTBData), nil
}

// lookup checks freshness lazily at read time; expired entries are dropped
// on the spot, there is no background sweep.
func (c *Cache) lookup(key string) (*models.HLTBData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if entry.Expired(time.Now()) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	out := *entry.Data
	out.Source = models.SourceCache
	return &out, true
}

func (c *Cache) put(ctx context.Context, key string, data *models.HLTBData, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = &models.CacheEntry{
		Key:       key,
		Data:      data,
		Timestamp: time.Now(),
		TTL:       ttl,
	}
	snapshot, err := json.Marshal(c.entries)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("could not serialize cache for persistence", "error", err)
		return
	}
	if err := c.store.Set(ctx, aggregateKey, snapshot); err != nil {
		// Persistence is best effort; the in-memory entry still serves.
		c.logger.Warn("could not persist cache", "error", err)
	}
}

// Clear removes every entry, including the persisted aggregate, and
// returns how many entries were dropped.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]*models.CacheEntry)
	c.mu.Unlock()

	if err := c.store.Remove(ctx, aggregateKey); err != nil {
		return removed, err
	}
	return removed, nil
}

// Stats describes the cache for diagnostics.
type Stats struct {
	Entries int     `json:"entries" yaml:"entries"`
	Hits    int64   `json:"hits" yaml:"hits"`
	Misses  int64   `json:"misses" yaml:"misses"`
	HitRate float64 `json:"hit_rate" yaml:"hit_rate"`
}

// CurrentStats returns a snapshot of the counters.
func (c *Cache) CurrentStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
