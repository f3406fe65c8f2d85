package extract

import (
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/pemistahl/lingua-go"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/pagedom"
)

// Selector lists tried in order; the first non-empty text wins. Every field
// is independent: a miss leaves the field absent, it never fails detection.
var (
	developerSelectors = []string{
		"#developers_list a",
		".dev_row .summary a",
		".details_block a[href*='developer']",
	}
	publisherSelectors = []string{
		".dev_row .summary.column a[href*='publisher']",
		".details_block a[href*='publisher']",
	}
	releaseDateSelectors = []string{
		".release_date .date",
		".date",
	}
	priceSelectors = []string{
		".discount_final_price",
		".game_purchase_price",
		".price",
	}
	tagSelectors = []string{
		".glance_tags a.app_tag",
		"a.app_tag",
	}
)

const maxTags = 5

var discountPattern = regexp.MustCompile(`-(\d+)%`)

// ExtractMetadata gathers best-effort secondary attributes. It always
// returns a value; any subset of fields may be empty.
func ExtractMetadata(p *pagedom.Page) models.EntityMetadata {
	md := models.EntityMetadata{}

	md.Developer = firstText(p, developerSelectors)
	md.Publisher = firstText(p, publisherSelectors)

	if raw := firstText(p, releaseDateSelectors); raw != "" {
		if ts, err := dateparse.ParseAny(normalizeReleaseDate(raw)); err == nil {
			md.ReleaseDate = ts.Format("2006-01-02")
		} else {
			// Unparseable dates are still worth surfacing as-is.
			md.ReleaseDate = raw
		}
	}

	extractPrice(p, &md)
	md.Tags = extractTags(p)
	detectLanguage(p, &md)

	return md
}

// dayMonthCommaPattern matches the storefront's "21 Oct, 2015" form, whose
// comma dateparse rejects.
var dayMonthCommaPattern = regexp.MustCompile(`^(\d{1,2}\s+[A-Za-z]+),(\s+\d{4})$`)

func normalizeReleaseDate(raw string) string {
	return dayMonthCommaPattern.ReplaceAllString(strings.TrimSpace(raw), "$1$2")
}

func firstText(p *pagedom.Page, selectors []string) string {
	for _, sel := range selectors {
		if text := p.Text(sel); text != "" {
			return text
		}
	}
	return ""
}

// extractPrice reads the display price plus any advertised discount. The
// currency guess is explicitly approximate: an unrecognized symbol defaults
// to USD and that is allowed to be wrong.
func extractPrice(p *pagedom.Page, md *models.EntityMetadata) {
	price := firstText(p, priceSelectors)
	if price == "" {
		return
	}
	md.Price = price
	md.Currency = guessCurrency(price)

	if pct := p.Text(".discount_pct"); pct != "" {
		if m := discountPattern.FindStringSubmatch(pct); len(m) > 1 {
			md.DiscountPercent = atoiSafe(m[1])
		}
	}
}

func guessCurrency(price string) string {
	switch {
	case strings.Contains(price, "€"):
		return "EUR"
	case strings.Contains(price, "£"):
		return "GBP"
	case strings.Contains(price, "¥"):
		return "JPY"
	case strings.Contains(price, "$"):
		return "USD"
	default:
		return "USD"
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func extractTags(p *pagedom.Page) []string {
	var tags []string
	for _, sel := range tagSelectors {
		p.Each(sel, func(_ int, s *goquery.Selection) {
			if len(tags) >= maxTags {
				return
			}
			if text := strings.TrimSpace(s.Text()); text != "" {
				tags = append(tags, text)
			}
		})
		if len(tags) > 0 {
			break
		}
	}
	return tags
}

// Language detection runs over the description snippet. The detector build
// is expensive, so it is shared and lazy.
var (
	langOnce     sync.Once
	langDetector lingua.LanguageDetector
)

func languageDetector() lingua.LanguageDetector {
	langOnce.Do(func() {
		langDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.German, lingua.French, lingua.Spanish,
				lingua.Portuguese, lingua.Italian, lingua.Polish, lingua.Russian,
				lingua.Japanese, lingua.Korean, lingua.Chinese,
			).
			Build()
	})
	return langDetector
}

func detectLanguage(p *pagedom.Page, md *models.EntityMetadata) {
	sample := p.Text(".game_description_snippet")
	if sample == "" {
		sample, _ = p.Attr(`meta[name="description"]`, "content")
	}
	if len(sample) < 20 {
		return
	}
	detector := languageDetector()
	lang, ok := detector.DetectLanguageOf(sample)
	if !ok {
		return
	}
	md.Language = strings.ToLower(lang.IsoCode639_1().String())
	md.LanguageConfidence = detector.ComputeLanguageConfidence(sample, lang)
}
