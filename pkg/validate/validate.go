// Package validate runs synthetic detection/fetch scenarios against the
// pipeline and scores the results against a latency and efficiency budget.
// Diagnostic only: it never gates production behavior.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/cache"
	"github.com/gamelens/gamelens/pkg/detect"
	"github.com/gamelens/gamelens/pkg/hltb"
	"github.com/gamelens/gamelens/pkg/pagedom"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/settings"
	"github.com/gamelens/gamelens/pkg/storage"
)

// Thresholds are the budgets a run is scored against.
type Thresholds struct {
	AvgDetection    time.Duration `yaml:"avg_detection"`
	MaxDetection    time.Duration `yaml:"max_detection"`
	MinCacheHitRate float64       `yaml:"min_cache_hit_rate"`
	MaxQueriesPerOp float64       `yaml:"max_queries_per_op"`
	MaxErrorRate    float64       `yaml:"max_error_rate"`
}

// DefaultThresholds returns the stock budget.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AvgDetection:    10 * time.Millisecond,
		MaxDetection:    50 * time.Millisecond,
		MinCacheHitRate: 0.5,
		MaxQueriesPerOp: 40,
		MaxErrorRate:    0.34,
	}
}

// Check is one scored threshold.
type Check struct {
	Name   string `yaml:"name"`
	Passed bool   `yaml:"passed"`
	Detail string `yaml:"detail"`
}

// Report is the run outcome.
type Report struct {
	Passed    bool    `yaml:"passed"`
	Scenarios int     `yaml:"scenarios"`
	Checks    []Check `yaml:"checks"`
}

type scenario struct {
	name        string
	url         string
	html        string
	expectMatch bool
}

// Synthetic pages: a store product page, a community hub, a non-matching
// page, and the store page again to exercise the cache-hit path.
var scenarios = []scenario{
	{
		name: "store page",
		url:  "https://store.example.com/app/123456/Some_Game/",
		html: `<html><head><title>Some Game on Steam</title>
			<meta property="og:title" content="Some Game"></head>
			<body><div class="game_purchase_action">buy</div></body></html>`,
		expectMatch: true,
	},
	{
		name: "community page",
		url:  "https://community.example.com/app/123456/",
		html: `<html><head><title>Steam Community :: Some Game</title></head>
			<body><div id="appHubAppName">Some Game</div></body></html>`,
		expectMatch: true,
	},
	{
		name:        "non-matching page",
		url:         "https://store.example.com/news/",
		html:        `<html><head><title>News</title></head><body></body></html>`,
		expectMatch: false,
	},
	{
		name: "repeated store page",
		url:  "https://store.example.com/app/123456/Some_Game/",
		html: `<html><head><title>Some Game on Steam</title>
			<meta property="og:title" content="Some Game"></head>
			<body><div class="game_purchase_action">buy</div></body></html>`,
		expectMatch: true,
	},
}

// syntheticSource returns canned data instantly, so the run measures the
// pipeline rather than a backend.
type syntheticSource struct{}

func (syntheticSource) Name() string { return "synthetic" }

func (syntheticSource) Fetch(_ context.Context, _ hltb.Query) (*models.HLTBData, error) {
	return &models.HLTBData{
		MainStory:  models.Hours(12),
		Source:     models.SourceFallback,
		Confidence: models.ConfidenceHigh,
	}, nil
}

// Run executes the scenarios against a fresh pipeline and scores them.
func Run(ctx context.Context, thresholds Thresholds, logger *slog.Logger) (*Report, error) {
	pm := perf.NewMonitor(64, 0, logger)
	store := storage.NewMemoryStore()
	svc := settings.NewService(store)
	c := cache.New(syntheticSource{}, store, svc, pm, logger)
	detector := detect.NewDetector(models.DefaultConfig(), nil, pm, logger)

	var (
		detections []time.Duration
		queries    int64
		errors     int
	)

	for _, sc := range scenarios {
		page, err := pagedom.FromHTML(sc.url, sc.html)
		if err != nil {
			return nil, fmt.Errorf("bad scenario %q: %w", sc.name, err)
		}

		result := detector.Detect(ctx, page)
		detections = append(detections, result.DetectionTime)
		queries += page.QueryCount()

		if result.Success != sc.expectMatch {
			errors++
			continue
		}
		if !result.Success {
			continue
		}
		if _, err := c.Get(ctx, hltb.Query{Title: result.Entity.Title, AppID: result.Entity.EntityID}); err != nil {
			errors++
		}
	}

	report := &Report{Scenarios: len(scenarios)}
	report.Checks = []Check{
		timingCheck("avg detection time", avg(detections), thresholds.AvgDetection),
		timingCheck("max detection time", max(detections), thresholds.MaxDetection),
		rateCheck("cache hit rate", pm.HitRate(), thresholds.MinCacheHitRate, true),
		rateCheck("dom queries per scenario", float64(queries)/float64(len(scenarios)), thresholds.MaxQueriesPerOp, false),
		rateCheck("error rate", float64(errors)/float64(len(scenarios)), thresholds.MaxErrorRate, false),
	}

	report.Passed = true
	for _, c := range report.Checks {
		if !c.Passed {
			report.Passed = false
		}
	}
	return report, nil
}

func timingCheck(name string, got, limit time.Duration) Check {
	return Check{
		Name:   name,
		Passed: got <= limit,
		Detail: fmt.Sprintf("%v (limit %v)", got, limit),
	}
}

func rateCheck(name string, got, limit float64, atLeast bool) Check {
	passed := got <= limit
	op := "<="
	if atLeast {
		passed = got >= limit
		op = ">="
	}
	return Check{
		Name:   name,
		Passed: passed,
		Detail: fmt.Sprintf("%.2f (want %s %.2f)", got, op, limit),
	}
}

func avg(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total / time.Duration(len(ds))
}

func max(ds []time.Duration) time.Duration {
	var m time.Duration
	for _, d := range ds {
		if d > m {
			m = d
		}
	}
	return m
}
