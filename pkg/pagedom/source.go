package pagedom

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gamelens/gamelens/pkg/fetcher"
)

// Source supplies fresh snapshots of a page. A live source re-fetches over
// HTTP; fixture sources replay canned HTML.
type Source interface {
	URL() string
	Snapshot(ctx context.Context) (*goquery.Document, error)
}

// LiveSource snapshots a page by fetching its URL.
type LiveSource struct {
	url string
	f   *fetcher.Fetcher
}

// NewLiveSource builds a Source backed by the given fetcher.
func NewLiveSource(url string, f *fetcher.Fetcher) *LiveSource {
	return &LiveSource{url: url, f: f}
}

func (s *LiveSource) URL() string { return s.url }

func (s *LiveSource) Snapshot(ctx context.Context) (*goquery.Document, error) {
	return s.f.GetHTML(ctx, s.url)
}

// FileSource snapshots a page from a fixture file on disk.
type FileSource struct {
	url  string
	path string
}

// NewFileSource builds a Source that re-reads path on every snapshot.
func NewFileSource(url, path string) *FileSource {
	return &FileSource{url: url, path: path}
}

func (s *FileSource) URL() string { return s.url }

func (s *FileSource) Snapshot(_ context.Context) (*goquery.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page fixture: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page fixture: %w", err)
	}
	return doc, nil
}

// SequenceSource replays a fixed series of HTML snapshots, then repeats the
// last one. Used to exercise stability gating against a page that rewrites
// itself after load.
type SequenceSource struct {
	url   string
	htmls []string
	idx   int
}

// NewSequenceSource builds a replaying Source. At least one snapshot is
// required.
func NewSequenceSource(url string, htmls ...string) *SequenceSource {
	return &SequenceSource{url: url, htmls: htmls}
}

func (s *SequenceSource) URL() string { return s.url }

func (s *SequenceSource) Snapshot(_ context.Context) (*goquery.Document, error) {
	if len(s.htmls) == 0 {
		return nil, fmt.Errorf("sequence source has no snapshots")
	}
	html := s.htmls[s.idx]
	if s.idx < len(s.htmls)-1 {
		s.idx++
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
