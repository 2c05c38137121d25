// Package service implements the reservation lifecycle engine: the
// create/update/cancel/query transitions against the reservation store.
package service

import (
	"context"
	"strings"

	"github.com/emmanuel582/backendtablenow/internal/events"
	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

// LookupScope controls the reservation lookup policy on update and cancel.
type LookupScope int

const (
	// ScopedOnly restricts lookup to the resolved tenant.
	ScopedOnly LookupScope = iota
	// ScopedThenGlobal falls back to a global confirmation-code lookup when
	// the scoped lookup misses. Covers events whose tenant resolution was
	// ambiguous or wrong.
	ScopedThenGlobal
)

// Store is the reservation persistence the engine needs.
type Store interface {
	Insert(ctx context.Context, res repository.Reservation) (*repository.Reservation, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*repository.Reservation, error)
	GetByCodeGlobal(ctx context.Context, code string) (*repository.Reservation, error)
	Update(ctx context.Context, id uuid.UUID, fields repository.UpdateFields) (*repository.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*repository.Reservation, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.Reservation, error)
}

// CallStore is the call-log persistence the engine needs.
type CallStore interface {
	UpsertCallStart(ctx context.Context, tenantID uuid.UUID, callID string, callerNumber *string) (*repository.CallLog, error)
	UpsertCallEnd(ctx context.Context, tenantID uuid.UUID, callID string, durationSeconds *int, transcript, recordingRef *string) (*repository.CallLog, error)
	ListCallsByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.CallLog, error)
}

// Service owns the reservation lifecycle.
type Service struct {
	store    Store
	calls    CallStore
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new reservation lifecycle service.
func New(store Store, calls CallStore, log *logger.Logger) *Service {
	return &Service{store: store, calls: calls, log: log}
}

// SetEventBus wires the domain event bus. Optional; without it no events are
// published.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// Guest carries the caller-supplied guest identity.
type Guest struct {
	Name  string
	Email string
	Phone string
}

// CreateInput is a create-booking command.
type CreateInput struct {
	Guest           Guest
	Date            string
	Time            string
	PartySize       int
	SpecialRequests string
	Source          string
}

// Create validates the booking, normalizes the time of day, assigns a
// confirmation code and stores the reservation as confirmed. External systems
// are not touched here; the side-effect coordinator runs after commit.
func (s *Service) Create(ctx context.Context, tenant *tenants.Tenant, in CreateInput) (*repository.Reservation, error) {
	if strings.TrimSpace(in.Guest.Name) == "" {
		return nil, apperr.Validation("guest name is required")
	}
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Time) == "" {
		return nil, apperr.Validation("date and time are required")
	}
	if in.PartySize <= 0 {
		return nil, apperr.Validation("party size must be positive")
	}
	if tenant.MaxPartySize > 0 && in.PartySize > tenant.MaxPartySize {
		return nil, apperr.Validation("party size exceeds the largest bookable table")
	}
	if in.Source == "" {
		in.Source = repository.SourcePhone
	}

	res := repository.Reservation{
		TenantID:         tenant.ID,
		ConfirmationCode: GenerateConfirmationCode(),
		GuestName:        strings.TrimSpace(in.Guest.Name),
		GuestEmail:       optional(in.Guest.Email),
		GuestPhone:       optional(in.Guest.Phone),
		Date:             strings.TrimSpace(in.Date),
		Time:             NormalizeTime(in.Time),
		PartySize:        in.PartySize,
		SpecialRequests:  optional(in.SpecialRequests),
		Status:           repository.StatusConfirmed,
		Source:           in.Source,
	}

	created, err := s.store.Insert(ctx, res)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ReservationCreated{
		BaseEvent:        events.NewBaseEvent(),
		ReservationID:    created.ID,
		TenantID:         created.TenantID,
		ConfirmationCode: created.ConfirmationCode,
		GuestName:        created.GuestName,
		GuestEmail:       in.Guest.Email,
		Date:             created.Date,
		Time:             created.Time,
		PartySize:        created.PartySize,
		Source:           created.Source,
	})
	return created, nil
}

// UpdateInput is an update-booking command. Nil fields stay unchanged.
type UpdateInput struct {
	GuestName       *string
	GuestEmail      *string
	GuestPhone      *string
	Date            *string
	Time            *string
	PartySize       *int
	SpecialRequests *string
}

// Update applies partial changes to a reservation found by confirmation code.
// The time field, when present, is normalized the same way as on create.
func (s *Service) Update(ctx context.Context, tenant *tenants.Tenant, code string, in UpdateInput, scope LookupScope) (*repository.Reservation, error) {
	existing, err := s.findByCode(ctx, tenant, code, scope)
	if err != nil {
		return nil, err
	}
	if existing.Status == repository.StatusCancelled {
		return nil, apperr.Conflict("reservation is cancelled and cannot be changed")
	}
	if in.PartySize != nil && *in.PartySize <= 0 {
		return nil, apperr.Validation("party size must be positive")
	}
	if in.Time != nil {
		normalized := NormalizeTime(*in.Time)
		in.Time = &normalized
	}

	updated, err := s.store.Update(ctx, existing.ID, repository.UpdateFields{
		GuestName:       in.GuestName,
		GuestEmail:      in.GuestEmail,
		GuestPhone:      in.GuestPhone,
		Date:            in.Date,
		Time:            in.Time,
		PartySize:       in.PartySize,
		SpecialRequests: in.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ReservationUpdated{
		BaseEvent:        events.NewBaseEvent(),
		ReservationID:    updated.ID,
		TenantID:         updated.TenantID,
		ConfirmationCode: updated.ConfirmationCode,
	})
	return updated, nil
}

// Cancel moves a reservation to cancelled. Cancelled is terminal: cancelling
// an already-cancelled reservation is a no-op returning the existing row, and
// never resurrects it.
func (s *Service) Cancel(ctx context.Context, tenant *tenants.Tenant, code string, scope LookupScope) (*repository.Reservation, error) {
	existing, err := s.findByCode(ctx, tenant, code, scope)
	if err != nil {
		return nil, err
	}
	if existing.Status == repository.StatusCancelled {
		return existing, nil
	}

	cancelled, err := s.store.UpdateStatus(ctx, existing.ID, repository.StatusCancelled)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ReservationCancelled{
		BaseEvent:        events.NewBaseEvent(),
		ReservationID:    cancelled.ID,
		TenantID:         cancelled.TenantID,
		ConfirmationCode: cancelled.ConfirmationCode,
	})
	return cancelled, nil
}

// Get fetches a reservation by confirmation code, scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenant *tenants.Tenant, code string) (*repository.Reservation, error) {
	return s.store.GetByCode(ctx, tenant.ID, code)
}

// List returns a tenant's reservations, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.Reservation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListByTenant(ctx, tenantID, limit, offset)
}

// RecordCallStart upserts an in-progress call log entry.
func (s *Service) RecordCallStart(ctx context.Context, tenantID uuid.UUID, callID, callerNumber string) error {
	if callID == "" {
		return apperr.Validation("call id is required")
	}
	_, err := s.calls.UpsertCallStart(ctx, tenantID, callID, optional(callerNumber))
	return err
}

// RecordCallEnd completes the call log for callID, synthesizing the row when
// the start event never arrived.
func (s *Service) RecordCallEnd(ctx context.Context, tenantID uuid.UUID, callID string, durationSeconds int, transcript, recordingRef string) error {
	if callID == "" {
		return apperr.Validation("call id is required")
	}
	var duration *int
	if durationSeconds > 0 {
		duration = &durationSeconds
	}
	_, err := s.calls.UpsertCallEnd(ctx, tenantID, callID, duration, optional(transcript), optional(recordingRef))
	return err
}

// ListCalls returns a tenant's call logs, newest first.
func (s *Service) ListCalls(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.CallLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.calls.ListCallsByTenant(ctx, tenantID, limit, offset)
}

// findByCode implements the tenant-then-global lookup policy. The scoped
// lookup always runs first; the global fallback only when the scope allows.
func (s *Service) findByCode(ctx context.Context, tenant *tenants.Tenant, code string, scope LookupScope) (*repository.Reservation, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperr.Validation("confirmation code is required")
	}

	res, err := s.store.GetByCode(ctx, tenant.ID, code)
	if err == nil {
		return res, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if scope != ScopedThenGlobal {
		return nil, err
	}
	return s.store.GetByCodeGlobal(ctx, code)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, event)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
