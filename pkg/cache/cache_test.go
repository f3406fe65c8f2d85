package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/hltb"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/settings"
	"github.com/gamelens/gamelens/pkg/storage"
)

type countingSource struct {
	calls int64
	delay time.Duration
	data  *models.HLTBData
	err   error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Fetch(_ context.Context, _ hltb.Query) (*models.HLTBData, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.data, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupCache(t *testing.T, src hltb.Source) (*Cache, storage.Store, *settings.Service) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := settings.NewService(store)
	return New(src, store, svc, perf.Nop(), testLogger()), store, svc
}

func TestGet_CacheRoundTrip(t *testing.T) {
	src := &countingSource{data: &models.HLTBData{MainStory: models.Hours(12), Source: models.SourceDatabase}}
	c, _, _ := setupCache(t, src)
	ctx := context.Background()
	q := hltb.Query{Title: "Some Game", AppID: "123456"}

	first, err := c.Get(ctx, q)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first.Source != models.SourceDatabase {
		t.Errorf("first Source = %q, want database", first.Source)
	}

	second, err := c.Get(ctx, q)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if second.Source != models.SourceCache {
		t.Errorf("second Source = %q, want cache", second.Source)
	}
	if *second.MainStory != 12 {
		t.Errorf("cached MainStory = %v, want identical record", *second.MainStory)
	}
	if got := atomic.LoadInt64(&src.calls); got != 1 {
		t.Errorf("underlying fetches = %d, want 1", got)
	}
}

func TestGet_DedupConcurrentRequesters(t *testing.T) {
	src := &countingSource{
		delay: 50 * time.Millisecond,
		data:  &models.HLTBData{AllStyles: models.Hours(40)},
	}
	c, _, _ := setupCache(t, src)
	q := hltb.Query{Title: "Some Game", AppID: "1"}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), q); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&src.calls); got != 1 {
		t.Errorf("underlying fetches = %d, want exactly 1 for 5 concurrent callers", got)
	}
}

func TestGet_FailedFetchDoesNotStickKey(t *testing.T) {
	src := &countingSource{err: hltb.ErrNotFound}
	c, _, _ := setupCache(t, src)
	q := hltb.Query{Title: "Missing Game"}

	for i := 0; i < 3; i++ {
		if _, err := c.Get(context.Background(), q); err == nil {
			t.Fatal("Get() error = nil, want ErrNotFound")
		}
	}
	// A stuck in-flight marker would have collapsed these into one call.
	if got := atomic.LoadInt64(&src.calls); got != 3 {
		t.Errorf("underlying fetches = %d, want 3 (marker cleared after failure)", got)
	}
}

func TestGet_ExpiredEntryForcesFetch(t *testing.T) {
	src := &countingSource{data: &models.HLTBData{MainStory: models.Hours(5)}}
	c, store, _ := setupCache(t, src)
	ctx := context.Background()
	q := hltb.Query{Title: "Old Game", AppID: "9"}

	if _, err := c.Get(ctx, q); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Backdate the entry past the 168h TTL (169h ago).
	c.mu.Lock()
	for _, e := range c.entries {
		e.Timestamp = time.Now().Add(-169 * time.Hour)
	}
	snapshot, _ := json.Marshal(c.entries)
	c.mu.Unlock()
	if err := store.Set(ctx, "hltb_cache", snapshot); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get(ctx, q); err != nil {
		t.Fatalf("Get() after expiry error = %v", err)
	}
	if got := atomic.LoadInt64(&src.calls); got != 2 {
		t.Errorf("underlying fetches = %d, want 2 (expired entry is a miss)", got)
	}
}

func TestGet_TTLReadPerLookup(t *testing.T) {
	src := &countingSource{data: &models.HLTBData{MainStory: models.Hours(5)}}
	c, _, svc := setupCache(t, src)
	ctx := context.Background()
	q := hltb.Query{Title: "Game", AppID: "2"}

	if _, err := c.Get(ctx, q); err != nil {
		t.Fatal(err)
	}

	// Disable caching after construction; the next lookup must bypass.
	s := models.DefaultSettings()
	s.CacheEnabled = false
	if err := svc.Set(ctx, s); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get(ctx, q); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&src.calls); got != 2 {
		t.Errorf("underlying fetches = %d, want 2 once caching is disabled", got)
	}
}

func TestClear_ReportsCountAndRemovesAggregate(t *testing.T) {
	src := &countingSource{data: &models.HLTBData{MainStory: models.Hours(5)}}
	c, store, _ := setupCache(t, src)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		if _, err := c.Get(ctx, hltb.Query{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Clear() removed = %d, want 3", removed)
	}
	if _, ok, _ := store.Get(ctx, "hltb_cache"); ok {
		t.Error("aggregate storage key survived Clear()")
	}
}

func TestHydrate_RestoresPersistedEntries(t *testing.T) {
	src := &countingSource{data: &models.HLTBData{MainStory: models.Hours(7)}}
	store := storage.NewMemoryStore()
	svc := settings.NewService(store)
	ctx := context.Background()

	first := New(src, store, svc, perf.Nop(), testLogger())
	if _, err := first.Get(ctx, hltb.Query{Title: "Persisted", AppID: "3"}); err != nil {
		t.Fatal(err)
	}

	// Second cache over the same store must serve from the hydrated entry.
	second := New(src, store, svc, perf.Nop(), testLogger())
	got, err := second.Get(ctx, hltb.Query{Title: "Persisted", AppID: "3"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != models.SourceCache {
		t.Errorf("Source = %q, want cache after hydration", got.Source)
	}
	if atomic.LoadInt64(&src.calls) != 1 {
		t.Errorf("underlying fetches = %d, want 1 across both cache instances", src.calls)
	}
}
