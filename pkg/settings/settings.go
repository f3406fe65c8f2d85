// Package settings persists the user-facing knobs through the storage
// collaborator.
package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/storage"
)

const storageKey = "settings"

// Service reads and writes settings. Reads always succeed: a missing or
// unreadable record yields the defaults.
type Service struct {
	store storage.Store
}

// NewService wraps the given store.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Get returns the persisted settings, or the defaults when nothing usable
// is stored. The error reports storage trouble but the settings value is
// always valid.
func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()

	data, ok, err := s.store.Get(ctx, storageKey)
	if err != nil || !ok {
		return settings, err
	}
	// Decode over the defaults so fields absent from a partial record keep
	// their default values rather than Go zero values.
	if jsonErr := json.Unmarshal(data, &settings); jsonErr != nil {
		return models.DefaultSettings(), nil
	}
	if settings.Theme == "" {
		settings.Theme = models.DefaultSettings().Theme
	}
	if settings.CacheDurationHours <= 0 {
		settings.CacheDurationHours = models.DefaultSettings().CacheDurationHours
	}
	return settings, nil
}

// Set persists the settings.
func (s *Service) Set(ctx context.Context, settings models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, storageKey, data)
}

// CacheTTL derives the cache duration from the current settings. Re-read
// per call so a settings change takes effect on the next lookup.
func (s *Service) CacheTTL(ctx context.Context) time.Duration {
	settings, _ := s.Get(ctx)
	return time.Duration(settings.CacheDurationHours) * time.Hour
}
