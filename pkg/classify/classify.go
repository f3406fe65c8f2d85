// Package classify turns a raw page URL into an entity id, page type and
// origin. It is pure and synchronous: no DOM, no network.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/gamelens/gamelens/models"
)

// Result is the outcome of classifying a URL. EntityID is empty when no
// pattern matched.
type Result struct {
	EntityID string
	PageType models.PageType
	Origin   models.Origin
}

type patternEntry struct {
	pageType models.PageType
	patterns []*regexp.Regexp
}

// patternTable is tried in order; within an entry, patterns are tried in
// order and the first capture group of the first match yields the entity id.
// No scoring: first match wins.
var patternTable = []patternEntry{
	{models.PageTypeBundle, []*regexp.Regexp{
		regexp.MustCompile(`/bundle/(\d+)`),
		regexp.MustCompile(`/sub/(\d+)`),
	}},
	{models.PageTypeDemo, []*regexp.Regexp{
		regexp.MustCompile(`/app/(\d+)/[^/]*[_-][Dd]emo(?:/|$)`),
	}},
	{models.PageTypeItem, []*regexp.Regexp{
		regexp.MustCompile(`/app/(\d+)`),
		regexp.MustCompile(`/agecheck/app/(\d+)`),
	}},
}

// genericIDPattern is the last-resort "has an item-id segment" rule.
var genericIDPattern = regexp.MustCompile(`/(\d{3,})(?:/|$)`)

// Classify maps a URL to its entity id, page type and origin. Deterministic
// for a given input.
func Classify(rawURL string) Result {
	res := Result{
		PageType: models.PageTypeUnknown,
		Origin:   classifyOrigin(rawURL),
	}

	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}

	for _, entry := range patternTable {
		for _, re := range entry.patterns {
			if m := re.FindStringSubmatch(path); len(m) > 1 {
				res.EntityID = m[1]
				res.PageType = entry.pageType
				return res
			}
		}
	}

	// Fallback: any numeric id segment, defaulting the type to item.
	if m := genericIDPattern.FindStringSubmatch(path); len(m) > 1 {
		res.EntityID = m[1]
		res.PageType = models.PageTypeItem
	}
	return res
}

// classifyOrigin derives the serving surface from the host alone,
// independent of the pattern table. Library is the catch-all.
func classifyOrigin(rawURL string) models.Origin {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)

	switch {
	case strings.Contains(host, "community"):
		return models.OriginCommunity
	case strings.Contains(host, "store"):
		return models.OriginStore
	default:
		return models.OriginLibrary
	}
}
