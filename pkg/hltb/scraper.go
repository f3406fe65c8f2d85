package hltb

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/extract"
	"github.com/gamelens/gamelens/pkg/fetcher"
)

// ScraperSource queries a search endpoint and parses the result markup.
// It is the last-resort source: slower, flakier, and its matches carry the
// confidence of a title comparison rather than an id.
type ScraperSource struct {
	baseURL string
	f       *fetcher.Fetcher
}

// NewScraper builds a ScraperSource against baseURL, whose search endpoint
// is expected at <baseURL>?q=<title>.
func NewScraper(baseURL string, f *fetcher.Fetcher) *ScraperSource {
	return &ScraperSource{baseURL: baseURL, f: f}
}

func (s *ScraperSource) Name() string { return "scraper" }

func (s *ScraperSource) Fetch(ctx context.Context, q Query) (*models.HLTBData, error) {
	title := extract.NormalizeTitle(q.Title)
	if title == "" {
		return nil, ErrNotFound
	}

	searchURL := fmt.Sprintf("%s?q=%s", s.baseURL, url.QueryEscape(title))
	doc, err := s.f.GetHTML(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("scraper search failed: %w", err)
	}

	best, score := bestCandidate(doc, title)
	if best == nil {
		return nil, ErrNotFound
	}

	best.Source = models.SourceScraper
	switch {
	case score >= 0.95:
		best.Confidence = models.ConfidenceHigh
	case score >= 0.6:
		best.Confidence = models.ConfidenceMedium
	default:
		best.Confidence = models.ConfidenceLow
	}
	return best, nil
}

// bestCandidate walks the search results and scores each against the
// wanted title.
func bestCandidate(doc *goquery.Document, wanted string) (*models.HLTBData, float64) {
	var best *models.HLTBData
	bestScore := 0.0

	doc.Find(".search_list_details").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("h3 a").First().Text())
		if name == "" {
			return
		}
		score := matchScore(wanted, extract.NormalizeTitle(name))
		if score <= bestScore {
			return
		}
		data := &models.HLTBData{MatchedTitle: name}
		s.Find(".search_list_tidbit").Each(func(i int, tidbit *goquery.Selection) {
			label := strings.ToLower(strings.TrimSpace(tidbit.Text()))
			next := tidbit.Next()
			if next.Length() == 0 {
				return
			}
			hours := parseHours(next.Text())
			switch {
			case strings.Contains(label, "main story"):
				data.MainStory = hours
			case strings.Contains(label, "main + extra"):
				data.MainExtra = hours
			case strings.Contains(label, "completionist"):
				data.Completionist = hours
			case strings.Contains(label, "all styles"):
				data.AllStyles = hours
			}
		})
		best = data
		bestScore = score
	})
	return best, bestScore
}

// matchScore compares two normalized titles on a 0..1 scale: exact, then
// prefix/containment, then token overlap.
func matchScore(wanted, got string) float64 {
	a := strings.ToLower(wanted)
	b := strings.ToLower(got)
	if a == b {
		return 1.0
	}
	if strings.HasPrefix(b, a) || strings.HasPrefix(a, b) {
		return 0.8
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return 0.65
	}

	wantTokens := strings.Fields(a)
	gotTokens := make(map[string]struct{})
	for _, tok := range strings.Fields(b) {
		gotTokens[tok] = struct{}{}
	}
	if len(wantTokens) == 0 {
		return 0
	}
	overlap := 0
	for _, tok := range wantTokens {
		if _, ok := gotTokens[tok]; ok {
			overlap++
		}
	}
	return 0.6 * float64(overlap) / float64(len(wantTokens))
}

var hoursPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)(½)?\s*Hours?`)

// parseHours reads figures like "25½ Hours" or "30 Hours". Unparseable
// text yields nil, which downstream treats as "no figure".
func parseHours(text string) *float64 {
	m := hoursPattern.FindStringSubmatch(strings.TrimSpace(text))
	if len(m) < 2 {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	if m[2] == "½" {
		v += 0.5
	}
	return &v
}
