// Package hltb supplies completion-time records for detected entities.
// Sources share one contract: given a query, return a record or report
// that nothing matched. How long the lookup takes and how it can fail is
// the source's own business.
package hltb

import (
	"context"
	"errors"

	"github.com/gamelens/gamelens/models"
)

// ErrNotFound means the source has no record for the query. Recoverable:
// the caller moves on to the next source or shows "no data".
var ErrNotFound = errors.New("no completion data found")

// ErrDatabaseLoad means the local database is unavailable. Non-recoverable
// for the database source; the chain degrades to its remaining sources.
var ErrDatabaseLoad = errors.New("completion database unavailable")

// Query identifies the entity to look up. Title is already normalized;
// AppID is optional.
type Query struct {
	Title string
	AppID string
}

// Source fetches an enrichment record for a query.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) (*models.HLTBData, error)
}

// ChainSource tries its sources in order. ErrNotFound moves to the next
// source; other errors are remembered but the chain still tries the rest.
type ChainSource struct {
	sources []Source
}

// NewChain builds a ChainSource over the given sources.
func NewChain(sources ...Source) *ChainSource {
	return &ChainSource{sources: sources}
}

func (c *ChainSource) Name() string { return "chain" }

// Fetch returns the first source's record. When every source misses, the
// result is ErrNotFound unless a source failed harder, in which case that
// failure is reported.
func (c *ChainSource) Fetch(ctx context.Context, q Query) (*models.HLTBData, error) {
	var lastErr error
	for _, src := range c.sources {
		data, err := src.Fetch(ctx, q)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			lastErr = err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNotFound
}
