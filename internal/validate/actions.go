package validate

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gamelens/gamelens/internal/common"
	validatepkg "github.com/gamelens/gamelens/pkg/validate"
)

// ValidateAction runs the synthetic detection scenarios against the
// performance thresholds and writes the report as YAML. A failed check
// exits nonzero so CI can gate on it.
func ValidateAction(c *cli.Context) error {
	logger := common.Logger(c)

	thresholds := validatepkg.DefaultThresholds()
	if v := c.Duration("max-avg-detection"); v > 0 {
		thresholds.AvgDetection = v
	}
	if v := c.Duration("max-detection"); v > 0 {
		thresholds.MaxDetection = v
	}

	start := time.Now()
	report, err := validatepkg.Run(c.Context, thresholds, logger)
	if err != nil {
		return fmt.Errorf("validation run failed: %w", err)
	}
	logger.Info("validation complete", "passed", report.Passed, "duration", time.Since(start))

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}

	if !report.Passed {
		return cli.Exit("validation thresholds not met", 1)
	}
	return nil
}
