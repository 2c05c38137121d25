// Package tenants owns the restaurant account records and the lookup chain
// that maps inbound channel identifiers onto them.
package tenants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/phone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tenant is a restaurant account: the isolation boundary for reservations
// and external-system credentials.
type Tenant struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	Capacity           int
	MaxPartySize       int
	PhoneNumberID      *string // voice-platform phone number id
	PhoneNumber        *string // E.164
	AssistantID        *string // voice-platform assistant id
	CalendarCredential []byte  // opaque per-tenant credential blob, nil when unconnected
	CRMEnabled         bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const tenantColumns = `id, name, email, capacity, max_party_size,
	phone_number_id, phone_number, assistant_id, calendar_credential, crm_enabled,
	created_at, updated_at`

// Repository provides tenant persistence on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new tenant repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Email,
		&t.Capacity,
		&t.MaxPartySize,
		&t.PhoneNumberID,
		&t.PhoneNumber,
		&t.AssistantID,
		&t.CalendarCredential,
		&t.CRMEnabled,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return &t, nil
}

// GetByID fetches a tenant by its internal id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(r.pool.QueryRow(ctx, query, id))
}

// GetByPhoneNumberID fetches a tenant by voice-platform phone number id.
func (r *Repository) GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE phone_number_id = $1`
	return scanTenant(r.pool.QueryRow(ctx, query, phoneNumberID))
}

// GetByPhoneNumber fetches a tenant by its phone number string. The input is
// normalized to E.164 before lookup so formatting variants still match.
func (r *Repository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE phone_number = $1`
	return scanTenant(r.pool.QueryRow(ctx, query, phone.NormalizeE164(phoneNumber)))
}

// GetByAssistantID fetches a tenant by voice-platform assistant id.
func (r *Repository) GetByAssistantID(ctx context.Context, assistantID string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE assistant_id = $1`
	return scanTenant(r.pool.QueryRow(ctx, query, assistantID))
}

// Create inserts a new tenant. Provisioning of voice-platform ids happens in
// the onboarding workflow and arrives through UpdateProvisioning.
func (r *Repository) Create(ctx context.Context, t Tenant) (*Tenant, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO tenants (id, name, email, capacity, max_party_size, crm_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + tenantColumns

	return scanTenant(r.pool.QueryRow(ctx, query,
		t.ID, t.Name, t.Email, t.Capacity, t.MaxPartySize, t.CRMEnabled))
}

// UpdateProvisioning records the voice-platform identifiers for a tenant.
// The partial unique indexes on phone_number_id and assistant_id enforce the
// one-active-id-per-tenant invariant.
func (r *Repository) UpdateProvisioning(ctx context.Context, id uuid.UUID, phoneNumberID, phoneNumber, assistantID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tenants
		SET phone_number_id = $2, phone_number = $3, assistant_id = $4, updated_at = now()
		WHERE id = $1`,
		id, phoneNumberID, phone.NormalizeE164(phoneNumber), assistantID)
	if err != nil {
		return fmt.Errorf("failed to update tenant provisioning: %w", err)
	}
	return nil
}

// UpdateCalendarCredential stores (or clears) the opaque calendar credential blob.
func (r *Repository) UpdateCalendarCredential(ctx context.Context, id uuid.UUID, credential []byte) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tenants SET calendar_credential = $2, updated_at = now() WHERE id = $1`,
		id, credential)
	if err != nil {
		return fmt.Errorf("failed to update calendar credential: %w", err)
	}
	return nil
}
