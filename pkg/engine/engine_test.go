package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/cache"
	"github.com/gamelens/gamelens/pkg/detect"
	"github.com/gamelens/gamelens/pkg/hltb"
	"github.com/gamelens/gamelens/pkg/pagedom"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/settings"
	"github.com/gamelens/gamelens/pkg/storage"
)

type fixedSource struct {
	data *models.HLTBData
	err  error
}

func (f *fixedSource) Name() string { return "fixed" }

func (f *fixedSource) Fetch(_ context.Context, _ hltb.Query) (*models.HLTBData, error) {
	return f.data, f.err
}

func testEngine(t *testing.T, src hltb.Source) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := models.DefaultConfig()
	cfg.WatchRemoval = false

	store := storage.NewMemoryStore()
	svc := settings.NewService(store)
	pm := perf.Nop()
	c := cache.New(src, store, svc, pm, logger)
	det := detect.NewDetector(cfg, nil, pm, logger)
	return New(cfg, det, c, svc, pm, logger)
}

const storeHTML = `<html><head><title>Some Game™ on Steam</title></head>
<body><div class="game_purchase_action">buy</div></body></html>`

func storePage(t *testing.T) *pagedom.Page {
	t.Helper()
	p, err := pagedom.FromHTML("https://store.example.com/app/123456/Some_Game/", storeHTML)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSession_SuccessPath(t *testing.T) {
	e := testEngine(t, &fixedSource{data: &models.HLTBData{
		MainStory: models.Hours(12), Source: models.SourceDatabase, Confidence: models.ConfidenceHigh,
	}})
	page := storePage(t)
	s := e.NewSession(page)
	defer s.Close()

	result := s.Refresh(context.Background())
	if !result.Success {
		t.Fatalf("Refresh() failed: %s", result.ErrorCode)
	}
	if !s.IsActive() {
		t.Error("overlay not mounted after successful pass")
	}

	html, _ := page.HTML()
	if !strings.Contains(html, `data-state="success"`) {
		t.Error("overlay not in success state")
	}
	if !strings.Contains(html, "Some Game") {
		t.Error("normalized title missing from overlay")
	}
}

func TestSession_NotFoundShowsNoData(t *testing.T) {
	e := testEngine(t, &fixedSource{err: hltb.ErrNotFound})
	page := storePage(t)
	s := e.NewSession(page)
	defer s.Close()

	s.Refresh(context.Background())

	html, _ := page.HTML()
	if !strings.Contains(html, `data-state="nodata"`) {
		t.Error("missing data must render the no-data state")
	}
}

func TestSession_FetchErrorShowsErrorState(t *testing.T) {
	e := testEngine(t, &fixedSource{err: errors.New("backend down")})
	page := storePage(t)
	s := e.NewSession(page)
	defer s.Close()

	s.Refresh(context.Background())

	html, _ := page.HTML()
	if !strings.Contains(html, `data-state="error"`) {
		t.Error("fetch failure must render the error state")
	}
}

func TestSession_UndetectablePageMountsNothing(t *testing.T) {
	e := testEngine(t, &fixedSource{data: &models.HLTBData{MainStory: models.Hours(1)}})
	page, err := pagedom.FromHTML("https://store.example.com/about/", "<html><body></body></html>")
	if err != nil {
		t.Fatal(err)
	}
	s := e.NewSession(page)
	defer s.Close()

	result := s.Refresh(context.Background())
	if result.Success {
		t.Fatal("Refresh() succeeded on an undetectable page")
	}
	if s.IsActive() {
		t.Error("overlay mounted despite detection failure")
	}
}

func TestSession_DisabledInSettings(t *testing.T) {
	src := &fixedSource{data: &models.HLTBData{MainStory: models.Hours(1)}}
	e := testEngine(t, src)

	off := models.DefaultSettings()
	off.Enabled = false
	if err := e.settings.Set(context.Background(), off); err != nil {
		t.Fatal(err)
	}

	page := storePage(t)
	s := e.NewSession(page)
	defer s.Close()

	if result := s.Refresh(context.Background()); result.Success {
		t.Error("Refresh() ran while disabled")
	}
	if s.IsActive() {
		t.Error("overlay mounted while disabled")
	}
}

func TestBatchFetch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	e := testEngine(t, &fixedSource{data: &models.HLTBData{MainStory: models.Hours(3)}})

	games := []BatchGame{
		{Title: "Alpha", AppID: "1"},
		{Title: "Beta"},
		{Title: "Gamma", AppID: "3"},
	}
	results := e.BatchFetch(context.Background(), games)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Title != games[i].Title {
			t.Errorf("results[%d].Title = %q, want %q (order preserved)", i, r.Title, games[i].Title)
		}
		if r.Error != "" || r.Data == nil {
			t.Errorf("results[%d] = %+v, want success", i, r)
		}
	}
}
