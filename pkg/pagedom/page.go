// Package pagedom wraps a parsed host-page document behind a handle the
// rest of the engine can query, mutate and re-snapshot. The host page is
// volatile by assumption: nothing here relies on a stable structure.
package pagedom

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
)

// fingerprintSelectors is the fixed list of regions whose text feeds the
// content fingerprint. The host rewrites these asynchronously after initial
// load, which is why stability gating exists at all.
var fingerprintSelectors = []string{
	"#appHubAppName",
	".apphub_AppName",
	".game_title_area",
	".page_title_area",
	"h1",
	"title",
}

// Page is a guarded handle on the current document. goquery documents are
// not safe for concurrent use, so every access goes through the lock.
type Page struct {
	mu      sync.RWMutex
	url     string
	doc     *goquery.Document
	source  Source
	queries atomic.Int64
}

// FromHTML parses raw HTML into a Page with no backing source.
func FromHTML(rawURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{url: rawURL, doc: doc}, nil
}

// FromSource takes an initial snapshot from src.
func FromSource(ctx context.Context, src Source) (*Page, error) {
	doc, err := src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &Page{url: src.URL(), doc: doc, source: src}, nil
}

// URL returns the page's address.
func (p *Page) URL() string { return p.url }

// Reload replaces the document with a fresh snapshot from the backing
// source. Pages built from raw HTML have no source and keep their document.
func (p *Page) Reload(ctx context.Context) error {
	if p.source == nil {
		return nil
	}
	doc, err := p.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-snapshot page: %w", err)
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

// Text returns the collapsed text of the first element matching sel, or ""
// when nothing matches.
func (p *Page) Text(sel string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.queries.Add(1)
	return strings.TrimSpace(p.doc.Find(sel).First().Text())
}

// Exists reports whether sel resolves to at least one element.
func (p *Page) Exists(sel string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.queries.Add(1)
	return p.doc.Find(sel).Length() > 0
}

// Attr returns the named attribute of the first element matching sel.
func (p *Page) Attr(sel, name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.queries.Add(1)
	return p.doc.Find(sel).First().Attr(name)
}

// Each iterates the elements matching sel under the read lock. The
// selection must not escape fn.
func (p *Page) Each(sel string, fn func(int, *goquery.Selection)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.queries.Add(1)
	p.doc.Find(sel).Each(fn)
}

// Read runs fn against the document under the read lock.
func (p *Page) Read(fn func(doc *goquery.Document)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.queries.Add(1)
	fn(p.doc)
}

// Mutate runs fn against the document under the write lock. This is the
// only sanctioned way to change the tree.
func (p *Page) Mutate(fn func(doc *goquery.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries.Add(1)
	fn(p.doc)
}

// HTML renders the current document.
func (p *Page) HTML() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Html()
}

// QueryCount returns the number of DOM queries issued so far. Diagnostic
// only.
func (p *Page) QueryCount() int64 { return p.queries.Load() }

// Fingerprint reduces the text of the fixed key regions to a cheap numeric
// hash. Two identical fingerprints mean the watched regions did not change
// between samples.
func (p *Page) Fingerprint() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.queries.Add(1)

	h := fnv.New64a()
	for _, sel := range fingerprintSelectors {
		p.doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			h.Write([]byte(strings.TrimSpace(s.Text())))
			h.Write([]byte{0})
		})
	}
	return h.Sum64()
}

// IsVisible reports whether the first element matching sel exists and is
// not hidden. With no layout engine this is a static heuristic: inline
// display/visibility styles, the hidden attribute and aria-hidden on the
// element or an ancestor all count as hidden.
func (p *Page) IsVisible(sel string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.queries.Add(1)

	s := p.doc.Find(sel).First()
	if s.Length() == 0 {
		return false
	}
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		if goquery.NodeName(cur) == "html" {
			break
		}
		if hiddenByAttrs(cur) {
			return false
		}
	}
	return true
}

func hiddenByAttrs(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, _ := s.Attr("aria-hidden"); v == "true" {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}
