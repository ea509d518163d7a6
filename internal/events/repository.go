package events

import "context"

// Repository persists events and their per-author copies.
type Repository interface {
	Create(ctx context.Context, e *EventEntry) error
	// CreateForUser stores the author's denormalized copy of e.
	CreateForUser(ctx context.Context, email string, e *EventEntry) error
	// RangeByGeohash returns events with start <= locationHash <= end,
	// ordered by locationHash.
	RangeByGeohash(ctx context.Context, start, end string) ([]EventEntry, error)
	// RecentForUser returns up to limit of the author's events, newest first.
	RecentForUser(ctx context.Context, email string, limit int) ([]EventEntry, error)
}
