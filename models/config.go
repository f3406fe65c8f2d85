// Package models defines the data structures shared across the engine.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the engine. Values come from an
// optional YAML file plus CLI flags; zero values mean "use default".
type Config struct {
	// Detection
	ExcludedPrefixes   []string      `yaml:"excluded_prefixes"`
	StabilityInterval  time.Duration `yaml:"stability_interval"`
	StabilityMaxWait   time.Duration `yaml:"stability_max_wait"`
	StabilityThreshold int           `yaml:"stability_threshold"`

	// Enrichment
	DatabasePath string        `yaml:"database_path"`
	ScraperURL   string        `yaml:"scraper_url"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// Injection
	WatchRemoval  bool          `yaml:"watch_removal"`
	WatchInterval time.Duration `yaml:"watch_interval"`

	// Diagnostics
	LatencyTarget time.Duration `yaml:"latency_target"`

	WorkerCount int `yaml:"worker_count"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		ExcludedPrefixes: []string{
			"/cart", "/checkout", "/login", "/join", "/account",
		},
		StabilityInterval:  200 * time.Millisecond,
		StabilityMaxWait:   3 * time.Second,
		StabilityThreshold: 3,
		FetchTimeout:       10 * time.Second,
		WatchRemoval:       true,
		WatchInterval:      time.Second / 60,
		LatencyTarget:      10 * time.Millisecond,
		WorkerCount:        4,
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.StabilityThreshold <= 0 {
		cfg.StabilityThreshold = 3
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	return cfg, nil
}
