package engine

import (
	"context"
	"sync"

	"github.com/gamelens/gamelens/models"
)

// BatchGame identifies one game in a batch request.
type BatchGame struct {
	Title string `json:"gameTitle" yaml:"title"`
	AppID string `json:"appId,omitempty" yaml:"app_id,omitempty"`
}

// BatchResult is the per-game outcome; Error is empty on success.
type BatchResult struct {
	Title string           `json:"gameTitle"`
	AppID string           `json:"appId,omitempty"`
	Data  *models.HLTBData `json:"data,omitempty"`
	Error string           `json:"error,omitempty"`
}

// BatchFetch resolves many games through the cache with a bounded worker
// pool. Order of results matches the input; individual failures never sink
// the batch.
func (e *Engine) BatchFetch(ctx context.Context, games []BatchGame) []BatchResult {
	results := make([]BatchResult, len(games))

	jobs := make(chan int, len(games))
	var wg sync.WaitGroup

	workers := e.cfg.WorkerCount
	if workers <= 0 {
		workers = 4
	}
	if workers > len(games) {
		workers = len(games)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				g := games[i]
				res := BatchResult{Title: g.Title, AppID: g.AppID}
				data, err := e.Fetch(ctx, g.Title, g.AppID)
				if err != nil {
					res.Error = err.Error()
				} else {
					res.Data = data
				}
				results[i] = res
			}
		}()
	}

	for i := range games {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
