// Package detect turns a URL plus a page snapshot into a DetectionResult.
// Detection is best effort and never panics or errors across its boundary:
// every outcome, including internal failures, is a result object.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/classify"
	"github.com/gamelens/gamelens/pkg/extract"
	"github.com/gamelens/gamelens/pkg/pagedom"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/stability"
)

// Detector orchestrates classification, stability gating and extraction.
type Detector struct {
	excludedPrefixes []string
	monitor          *stability.Monitor
	perf             *perf.Monitor
	logger           *slog.Logger
}

// NewDetector builds a Detector. The stability monitor may be nil, which
// skips the gate entirely (useful for static fixtures).
func NewDetector(cfg models.Config, monitor *stability.Monitor, pm *perf.Monitor, logger *slog.Logger) *Detector {
	return &Detector{
		excludedPrefixes: cfg.ExcludedPrefixes,
		monitor:          monitor,
		perf:             pm,
		logger:           logger,
	}
}

// Detect runs one detection pass over the page. The returned result is
// terminal: exactly one of Entity and ErrorCode is populated.
func (d *Detector) Detect(ctx context.Context, page *pagedom.Page) (result models.DetectionResult) {
	span := d.perf.Begin("detect")
	startQueries := page.QueryCount()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("detection panicked", "url", page.URL(), "panic", r)
			result = models.DetectionResult{
				Success:     false,
				ErrorCode:   models.ErrCodeInternal,
				ErrorDetail: fmt.Sprint(r),
			}
		}
		result.DetectionTime = time.Since(start)
		span.End(page.QueryCount() - startQueries)
	}()

	if d.isExcluded(page.URL()) {
		return models.DetectionResult{
			Success:     false,
			ErrorCode:   models.ErrCodeExcluded,
			ErrorDetail: "page is on the exclusion list",
		}
	}

	cls := classify.Classify(page.URL())
	if cls.EntityID == "" {
		return models.DetectionResult{
			Success:     false,
			ErrorCode:   models.ErrCodeNoAppID,
			ErrorDetail: "no entity id in URL",
		}
	}

	stillLoading := false
	if d.monitor != nil {
		// Timing out here is not fatal; we extract from whatever the page
		// currently holds and flag it.
		stillLoading = !d.monitor.WaitForStable(ctx, page)
	}

	title, ok := extract.ExtractTitle(page)
	if !ok {
		return models.DetectionResult{
			Success:             false,
			ErrorCode:           models.ErrCodeNoTitle,
			ErrorDetail:         "all title strategies failed",
			ContentStillLoading: stillLoading,
		}
	}

	metadata := extract.ExtractMetadata(page)
	pageType := refinePageType(cls.PageType, page)

	entity := &models.EntityInfo{
		EntityID:    cls.EntityID,
		Title:       extract.NormalizeTitle(title.Title),
		PageType:    pageType,
		Origin:      cls.Origin,
		URL:         page.URL(),
		TitleSource: title.Source,
		Metadata:    metadata,
		ExtractedAt: time.Now(),
	}

	d.logger.Debug("detection succeeded",
		"entity_id", entity.EntityID, "title", entity.Title,
		"title_source", entity.TitleSource, "still_loading", stillLoading)

	return models.DetectionResult{
		Success:             true,
		Entity:              entity,
		ContentStillLoading: stillLoading,
	}
}

func (d *Detector) isExcluded(rawURL string) bool {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	for _, prefix := range d.excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// refinePageType upgrades a URL-derived item classification using page
// markup the URL can't carry: DLC bubbles and software breadcrumbs.
func refinePageType(t models.PageType, page *pagedom.Page) models.PageType {
	if t != models.PageTypeItem {
		return t
	}
	if page.Exists(".game_area_dlc_bubble") {
		return models.PageTypeDLC
	}
	if crumb := page.Text(".breadcrumbs a"); strings.EqualFold(crumb, "software") {
		return models.PageTypeSoftware
	}
	return t
}
