package db

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gamelens/gamelens/internal/common"
	"github.com/gamelens/gamelens/pkg/hltb"
)

// InfoAction prints row count and coverage statistics for the games database.
func InfoAction(c *cli.Context) error {
	logger := common.Logger(c)

	path := c.String("db")
	if path == "" {
		return fmt.Errorf("no database provided via --db flag")
	}
	database, err := hltb.OpenDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	info, err := database.Stats(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read database stats: %w", err)
	}
	logger.Info("database opened", "path", path, "games", info.GameCount)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

// ImportAction loads game records from a YAML file into the database,
// replacing existing rows with the same app id.
func ImportAction(c *cli.Context) error {
	logger := common.Logger(c)

	path := c.String("db")
	if path == "" {
		return fmt.Errorf("no database provided via --db flag")
	}
	input := c.String("input")
	if input == "" {
		return fmt.Errorf("no input file provided via --input flag")
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	var records []hltb.GameRecord
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("input file %s contains no records", input)
	}

	database, err := hltb.OpenDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	imported, err := database.Import(c.Context, records)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	logger.Info("import complete", "records", imported, "path", path)
	fmt.Fprintf(os.Stdout, "Imported %d games into %s\n", imported, path)
	return nil
}
