// Package extract pulls the entity's identity and secondary attributes out
// of a page snapshot. Title strategies run in a fixed priority order with
// first-success-wins; metadata extraction is best effort per field.
package extract

import (
	"regexp"
	"strings"
)

var (
	trademarkReplacer = strings.NewReplacer("™", "", "®", "", "©", "")

	// Promotional decorations sellers append to product titles.
	promoSuffixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*\((early access|beta|demo version)\)$`),
		regexp.MustCompile(`(?i)\s*[-–]\s*(game of the year|goty|definitive|deluxe|complete)\s+edition$`),
	}

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// NormalizeTitle strips trademark symbols and promotional suffixes and
// collapses whitespace. Applied uniformly wherever a title feeds a cache
// key or the display, regardless of which strategy produced it.
func NormalizeTitle(title string) string {
	title = trademarkReplacer.Replace(title)
	for _, re := range promoSuffixes {
		title = re.ReplaceAllString(title, "")
	}
	title = whitespaceRun.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// CacheKey derives the storage key for a title, optionally qualified by the
// entity id. Normalized so the same game always maps to the same key.
func CacheKey(title, entityID string) string {
	key := strings.ToLower(NormalizeTitle(title))
	if entityID != "" {
		key = key + "|" + entityID
	}
	return key
}
