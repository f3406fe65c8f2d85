package models

import "time"

// CacheEntry wraps an enrichment record with its freshness window.
// Expiry is lazy: checked at read time, no background sweep.
type CacheEntry struct {
	Key       string        `json:"key"`
	Data      *HLTBData     `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl"`
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.Sub(e.Timestamp) > e.TTL
}
