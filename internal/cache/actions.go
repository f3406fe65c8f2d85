package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gamelens/gamelens/internal/common"
)

// StatsAction prints the cache layer's current counters. Entries persisted
// in the --store database are hydrated before counting.
func StatsAction(c *cli.Context) error {
	rt, err := common.Build(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats := rt.Engine.Cache().CurrentStats()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// ClearAction drops every cached entry, in memory and in the store.
func ClearAction(c *cli.Context) error {
	rt, err := common.Build(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	removed, err := rt.Engine.Cache().Clear(c.Context)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	rt.Logger.Info("cache cleared", "removed", removed)
	fmt.Fprintf(os.Stdout, "Cleared %d cached entries\n", removed)
	return nil
}
