// Package store persists extracted content keyed by URL fingerprint.
// Staleness is a read-time filter: expired rows are invisible to Load but
// stay on disk until overwritten or purged.
package store

import (
	"context"
	"time"
)

// Entry is one cached extraction result.
type Entry struct {
	Data      []string
	Timestamp time.Time
}

// Expired reports whether the entry is older than ttl at time now.
func (e Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) >= ttl
}

// Store defines the persistence interface for the content cache.
type Store interface {
	// Load returns every entry not older than the store's TTL, evaluated
	// against wall-clock now at call time.
	Load(ctx context.Context) (map[string]Entry, error)

	// Put upserts an entry with a fresh timestamp. Last write wins.
	Put(ctx context.Context, key string, data []string) error

	// PurgeExpired deletes rows older than the TTL and reports how many
	// were removed. Purging is housekeeping, not required for correctness.
	PurgeExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
