package validate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_PassesWithDefaultBudget(t *testing.T) {
	report, err := Run(context.Background(), DefaultThresholds(), testLogger())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Scenarios != len(scenarios) {
		t.Errorf("Scenarios = %d, want %d", report.Scenarios, len(scenarios))
	}
	if len(report.Checks) != 5 {
		t.Fatalf("len(Checks) = %d, want 5", len(report.Checks))
	}
	for _, c := range report.Checks {
		if !c.Passed {
			t.Errorf("check %q failed: %s", c.Name, c.Detail)
		}
	}
	if !report.Passed {
		t.Error("Report.Passed = false, want true")
	}
}

func TestRun_ImpossibleBudgetFails(t *testing.T) {
	impossible := Thresholds{
		AvgDetection:    time.Nanosecond,
		MaxDetection:    time.Nanosecond,
		MinCacheHitRate: 1.01,
		MaxQueriesPerOp: 0,
		MaxErrorRate:    -1,
	}
	report, err := Run(context.Background(), impossible, testLogger())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Passed {
		t.Error("Report.Passed = true under an impossible budget")
	}
}
