package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/pagedom"
)

// TitleResult is a successful title extraction, recording which strategy
// won. The source is observability only; nothing downstream branches on it.
type TitleResult struct {
	Title  string
	Source models.TitleSource
}

type titleStrategy struct {
	source models.TitleSource
	fn     func(p *pagedom.Page) string
}

// titleStrategies run in this exact order; the first non-empty result wins.
// There is no merging and no confidence comparison between strategies.
var titleStrategies = []titleStrategy{
	{models.TitleSourceOGMeta, titleFromOGMeta},
	{models.TitleSourceAppName, titleFromAppName},
	{models.TitleSourceJSONLD, titleFromJSONLD},
	{models.TitleSourceBreadcrumb, titleFromBreadcrumb},
	{models.TitleSourceDocTitle, titleFromDocTitle},
	{models.TitleSourceFallback, titleFromFallback},
}

// ExtractTitle walks the strategy cascade. ok is false when all six
// strategies came up empty.
func ExtractTitle(p *pagedom.Page) (TitleResult, bool) {
	for _, strat := range titleStrategies {
		if title := strings.TrimSpace(strat.fn(p)); title != "" {
			return TitleResult{Title: title, Source: strat.source}, true
		}
	}
	return TitleResult{}, false
}

// Strategy 1: social-preview metadata. Most reliable because it is written
// for crawlers and independent of visual rendering.
func titleFromOGMeta(p *pagedom.Page) string {
	if v, ok := p.Attr(`meta[property="og:title"]`, "content"); ok {
		return v
	}
	if v, ok := p.Attr(`meta[name="twitter:title"]`, "content"); ok {
		return v
	}
	return ""
}

// appNameSelectors carry the page-specific "app name" markup.
var appNameSelectors = []string{
	"#appHubAppName",
	".apphub_AppName",
	".game_title_area .apphub_AppName",
}

// Strategy 2: the page's own app-name element. Hidden or zero-rendered
// elements are skipped; an invisible heading is usually a template stub.
func titleFromAppName(p *pagedom.Page) string {
	for _, sel := range appNameSelectors {
		if !p.IsVisible(sel) {
			continue
		}
		if text := p.Text(sel); text != "" {
			return text
		}
	}
	return ""
}

// Strategy 3: embedded linked-data blocks. Malformed JSON is skipped, never
// fatal.
func titleFromJSONLD(p *pagedom.Page) string {
	var found string
	p.Each(`script[type="application/ld+json"]`, func(_ int, s *goquery.Selection) {
		if found != "" {
			return
		}
		var block struct {
			Type string `json:"@type"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &block); err != nil {
			return
		}
		switch block.Type {
		case "Product", "VideoGame", "SoftwareApplication":
			found = block.Name
		}
	})
	return found
}

// Strategy 4: trailing breadcrumb link.
func titleFromBreadcrumb(p *pagedom.Page) string {
	var last string
	p.Each(".breadcrumbs a, nav.breadcrumb a", func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			last = text
		}
	})
	return last
}

// Known site decorations around the document title.
var docTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+on steam$`),
	regexp.MustCompile(`(?i)\s*[-–|]\s*steam$`),
	regexp.MustCompile(`(?i)^steam community\s*::\s*`),
	regexp.MustCompile(`(?i)^save \d+% on\s+`),
}

// Strategy 5: the document title with site decorations stripped. Only
// accepted when stripping actually changed the raw title: an unmodified
// title means this probably isn't a product page, so the strategy rejects
// rather than trust it.
func titleFromDocTitle(p *pagedom.Page) string {
	raw := p.Text("title")
	if raw == "" {
		return ""
	}
	stripped := raw
	for _, re := range docTitlePatterns {
		stripped = re.ReplaceAllString(stripped, "")
	}
	stripped = strings.TrimSpace(stripped)
	if stripped == raw || stripped == "" {
		return ""
	}
	return stripped
}

// Strategy 6: generic fallback. Tries the readability distillation of the
// whole document first, then bare heading markup. A readability result that
// is just the raw document title is discarded: strategy 5 already rejected
// that title, and this strategy must not resurrect it.
func titleFromFallback(p *pagedom.Page) string {
	if title := readabilityTitle(p); title != "" && title != p.Text("title") {
		return title
	}
	for _, sel := range []string{"h1.pageheader", "h1", ".page_title_area h2"} {
		if text := p.Text(sel); text != "" {
			return text
		}
	}
	return ""
}

func readabilityTitle(p *pagedom.Page) string {
	html, err := p.HTML()
	if err != nil {
		return ""
	}
	pageURL, err := url.Parse(p.URL())
	if err != nil {
		return ""
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.Title)
}
