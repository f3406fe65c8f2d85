package models

// Settings are the user-facing knobs persisted through the storage
// collaborator. Unset values fall back to DefaultSettings.
type Settings struct {
	Enabled            bool   `json:"enabled"`
	CacheEnabled       bool   `json:"cacheEnabled"`
	Theme              string `json:"theme"`
	CacheDurationHours int    `json:"cacheDurationHours"`
}

// DefaultSettings returns the documented defaults: enabled, caching on,
// auto theme, one-week cache.
func DefaultSettings() Settings {
	return Settings{
		Enabled:            true,
		CacheEnabled:       true,
		Theme:              "auto",
		CacheDurationHours: 168,
	}
}
