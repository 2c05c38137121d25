// Package repository provides Postgres persistence for reservations and call logs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emmanuel582/backendtablenow/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Reservation statuses.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Reservation sources.
const (
	SourcePhone  = "phone"
	SourceManual = "manual"
	SourceEmail  = "email"
)

// Reservation is the authoritative booking record. Date and time are stored
// as text: the intake boundary is deliberately lenient and an unparseable
// value must survive storage unchanged.
type Reservation struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	ConfirmationCode string
	GuestName        string
	GuestEmail       *string
	GuestPhone       *string
	Date             string
	Time             string
	PartySize        int
	SpecialRequests  *string
	Status           string
	Source           string
	CalendarEventID  *string
	CRMDealID        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const reservationColumns = `id, tenant_id, confirmation_code, guest_name, guest_email, guest_phone,
	date, time, party_size, special_requests, status, source,
	calendar_event_id, crm_deal_id, created_at, updated_at`

// Repository provides reservation persistence on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new reservations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID,
		&r.TenantID,
		&r.ConfirmationCode,
		&r.GuestName,
		&r.GuestEmail,
		&r.GuestPhone,
		&r.Date,
		&r.Time,
		&r.PartySize,
		&r.SpecialRequests,
		&r.Status,
		&r.Source,
		&r.CalendarEventID,
		&r.CRMDealID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("reservation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}
	return &r, nil
}

// Insert stores a new reservation.
func (r *Repository) Insert(ctx context.Context, res Reservation) (*Reservation, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	query := `
		INSERT INTO reservations (id, tenant_id, confirmation_code, guest_name, guest_email, guest_phone,
			date, time, party_size, special_requests, status, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + reservationColumns

	return scanReservation(r.pool.QueryRow(ctx, query,
		res.ID, res.TenantID, res.ConfirmationCode, res.GuestName, res.GuestEmail, res.GuestPhone,
		res.Date, res.Time, res.PartySize, res.SpecialRequests, res.Status, res.Source))
}

// GetByCode fetches a reservation scoped to one tenant.
func (r *Repository) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND confirmation_code = $2`
	return scanReservation(r.pool.QueryRow(ctx, query, tenantID, code))
}

// GetByCodeGlobal fetches a reservation by confirmation code across all
// tenants. Confirmation codes are globally unique, so at most one row matches.
func (r *Repository) GetByCodeGlobal(ctx context.Context, code string) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE confirmation_code = $1`
	return scanReservation(r.pool.QueryRow(ctx, query, code))
}

// UpdateFields carries the optional booking fields an update may change.
// Nil means leave the column unchanged.
type UpdateFields struct {
	GuestName       *string
	GuestEmail      *string
	GuestPhone      *string
	Date            *string
	Time            *string
	PartySize       *int
	SpecialRequests *string
}

// Update applies the supplied fields to a reservation and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Reservation, error) {
	query := `
		UPDATE reservations SET
			guest_name = COALESCE($2, guest_name),
			guest_email = COALESCE($3, guest_email),
			guest_phone = COALESCE($4, guest_phone),
			date = COALESCE($5, date),
			time = COALESCE($6, time),
			party_size = COALESCE($7, party_size),
			special_requests = COALESCE($8, special_requests),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + reservationColumns

	return scanReservation(r.pool.QueryRow(ctx, query, id,
		fields.GuestName, fields.GuestEmail, fields.GuestPhone,
		fields.Date, fields.Time, fields.PartySize, fields.SpecialRequests))
}

// UpdateStatus sets the reservation status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Reservation, error) {
	query := `
		UPDATE reservations SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + reservationColumns
	return scanReservation(r.pool.QueryRow(ctx, query, id, status))
}

// SetCalendarEventID records the external calendar event backing a reservation.
func (r *Repository) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE reservations SET calendar_event_id = $2, updated_at = now() WHERE id = $1`,
		id, eventID)
	if err != nil {
		return fmt.Errorf("failed to set calendar event id: %w", err)
	}
	return nil
}

// SetCRMDealID records the CRM deal mirroring a reservation.
func (r *Repository) SetCRMDealID(ctx context.Context, id uuid.UUID, dealID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE reservations SET crm_deal_id = $2, updated_at = now() WHERE id = $1`,
		id, dealID)
	if err != nil {
		return fmt.Errorf("failed to set crm deal id: %w", err)
	}
	return nil
}

// CountConfirmedPartySize sums the party sizes of confirmed reservations for
// one tenant/date/time slot. Feeds the capacity tier of availability checks.
func (r *Repository) CountConfirmedPartySize(ctx context.Context, tenantID uuid.UUID, date, timeOfDay string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(party_size), 0) FROM reservations
		WHERE tenant_id = $1 AND date = $2 AND time = $3 AND status = $4`,
		tenantID, date, timeOfDay, StatusConfirmed).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed party size: %w", err)
	}
	return total, nil
}

// ListByTenant returns a tenant's reservations, newest first.
func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}
