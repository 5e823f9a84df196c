// Package repositories defines persistence contracts consumed by the
// application services.
package repositories

import (
	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
)

// EventFilter narrows event listings.
type EventFilter struct {
	SessionID string
	EventType string
	Since     int64 // epoch milliseconds, 0 means unbounded
	Limit     int
}

// EventStore is the durable bounded local log of tracked events.
type EventStore interface {
	// Append stores an identifier-stamped copy of the event. It absorbs
	// storage failures; tracking callers never observe them.
	Append(event *events.TrackingEvent)
	List(filter EventFilter) ([]*events.TrackingEvent, error)
	Count() (int, error)
	DeleteBySessionID(sessionID string) (int64, error)
	// RewriteSessionID relabels events from a synthetic session id to its
	// upgraded id. Idempotent.
	RewriteSessionID(oldID, newID string) (int64, error)
}

// RemoteEventStore is the insert-only remote ingestion table.
type RemoteEventStore interface {
	Insert(event *events.TrackingEvent) error
	DeleteBySessionID(sessionID string) (int64, error)
}
