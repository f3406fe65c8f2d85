package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gamelens/gamelens/internal/common"
	enginepkg "github.com/gamelens/gamelens/pkg/engine"
	"github.com/gamelens/gamelens/pkg/hltb"
)

// FetchAction resolves completion data for a single title through the cache
// and the configured source chain.
func FetchAction(c *cli.Context) error {
	rt, err := common.Build(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	title := c.String("title")
	if title == "" {
		return fmt.Errorf("no title provided via --title flag")
	}

	data, err := rt.Engine.Fetch(c.Context, title, c.String("app-id"))
	if errors.Is(err, hltb.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("no completion data found for %q", title), 1)
	}
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	rt.Logger.Info("fetch complete", "title", title, "source", data.Source, "confidence", data.Confidence)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// BatchAction resolves many titles from a YAML input file through the
// bounded worker pool.
func BatchAction(c *cli.Context) error {
	rt, err := common.Build(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	path := c.String("input")
	if path == "" {
		return fmt.Errorf("no input file provided via --input flag")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var games []enginepkg.BatchGame
	if err := yaml.Unmarshal(raw, &games); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	if len(games) == 0 {
		return fmt.Errorf("input file %s contains no games", path)
	}

	rt.Logger.Info("batch fetch starting", "count", len(games), "workers", rt.Config.WorkerCount)
	results := rt.Engine.BatchFetch(c.Context, games)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	rt.Logger.Info("batch fetch complete", "count", len(results), "failed", failed)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
