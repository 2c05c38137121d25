// Package calendar defines the external calendar collaborator interface and
// its HTTP client implementation. Every call is parameterized by an opaque
// per-tenant credential blob stored on the tenant record.
package calendar

import (
	"context"
	"time"
)

// BusyInterval is one busy block returned by a free/busy query.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// EventInput describes a calendar event to create or update.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Service is the calendar capability consumed by the availability oracle and
// the side-effect coordinator.
type Service interface {
	// CreateEvent creates an event and returns the external event id.
	CreateEvent(ctx context.Context, credential []byte, event EventInput) (string, error)
	// UpdateEvent patches an existing event.
	UpdateEvent(ctx context.Context, credential []byte, eventID string, event EventInput) error
	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, credential []byte, eventID string) error
	// QueryBusy returns the busy intervals overlapping the window.
	QueryBusy(ctx context.Context, credential []byte, windowStart, windowEnd time.Time) ([]BusyInterval, error)
}
