package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves audit events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, eventType string, details map[string]string) error

	// Recent retrieves up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Range retrieves events within a time range, oldest first.
	Range(ctx context.Context, start, end time.Time) ([]Event, error)

	// Summary aggregates event counts per type.
	Summary(ctx context.Context) (map[string]int64, error)

	// Close closes the store and releases resources.
	Close() error
}
