// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/emmanuel582/backendtablenow/platform/events"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Reservation Domain Events
// =============================================================================

// ReservationCreated is published after a reservation is committed and its
// side effects have been dispatched.
type ReservationCreated struct {
	BaseEvent
	ReservationID    uuid.UUID `json:"reservationId"`
	TenantID         uuid.UUID `json:"tenantId"`
	ConfirmationCode string    `json:"confirmationCode"`
	GuestName        string    `json:"guestName"`
	GuestEmail       string    `json:"guestEmail,omitempty"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	PartySize        int       `json:"partySize"`
	Source           string    `json:"source"`
}

func (e ReservationCreated) EventName() string { return "reservations.created" }

// ReservationUpdated is published after reservation fields change.
type ReservationUpdated struct {
	BaseEvent
	ReservationID    uuid.UUID `json:"reservationId"`
	TenantID         uuid.UUID `json:"tenantId"`
	ConfirmationCode string    `json:"confirmationCode"`
}

func (e ReservationUpdated) EventName() string { return "reservations.updated" }

// ReservationCancelled is published after a reservation is cancelled.
type ReservationCancelled struct {
	BaseEvent
	ReservationID    uuid.UUID `json:"reservationId"`
	TenantID         uuid.UUID `json:"tenantId"`
	ConfirmationCode string    `json:"confirmationCode"`
}

func (e ReservationCancelled) EventName() string { return "reservations.cancelled" }

// CallEnded is published when the voice platform reports a finished call.
type CallEnded struct {
	BaseEvent
	TenantID     uuid.UUID `json:"tenantId"`
	CallID       string    `json:"callId"`
	CallerNumber string    `json:"callerNumber,omitempty"`
	Duration     int       `json:"durationSeconds"`
	RecordingURL string    `json:"recordingUrl,omitempty"`
}

func (e CallEnded) EventName() string { return "calls.ended" }
