package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emmanuel582/backendtablenow/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Call statuses.
const (
	CallInProgress = "in_progress"
	CallCompleted  = "completed"
)

// CallLog records one phone call, keyed by the voice platform's call id. The
// unique key on call_id makes start/end recording idempotent against channel
// retries and lost start events.
type CallLog struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	CallID          string
	CallerNumber    *string
	Status          string
	DurationSeconds *int
	Transcript      *string
	RecordingRef    *string
	StartedAt       time.Time
	EndedAt         *time.Time
}

const callLogColumns = `id, tenant_id, call_id, caller_number, status,
	duration_seconds, transcript, recording_ref, started_at, ended_at`

func scanCallLog(row pgx.Row) (*CallLog, error) {
	var c CallLog
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.CallID,
		&c.CallerNumber,
		&c.Status,
		&c.DurationSeconds,
		&c.Transcript,
		&c.RecordingRef,
		&c.StartedAt,
		&c.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("call log not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan call log: %w", err)
	}
	return &c, nil
}

// UpsertCallStart records the start of a call. A retried start event updates
// the caller number rather than inserting a duplicate row.
func (r *Repository) UpsertCallStart(ctx context.Context, tenantID uuid.UUID, callID string, callerNumber *string) (*CallLog, error) {
	query := `
		INSERT INTO call_logs (id, tenant_id, call_id, caller_number, status, started_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (call_id) DO UPDATE
		SET caller_number = COALESCE(EXCLUDED.caller_number, call_logs.caller_number)
		RETURNING ` + callLogColumns

	return scanCallLog(r.pool.QueryRow(ctx, query,
		uuid.New(), tenantID, callID, callerNumber, CallInProgress))
}

// UpsertCallEnd completes a call log. When the start event was lost the row
// is synthesized here, so every ended call eventually has exactly one row.
func (r *Repository) UpsertCallEnd(ctx context.Context, tenantID uuid.UUID, callID string, durationSeconds *int, transcript, recordingRef *string) (*CallLog, error) {
	query := `
		INSERT INTO call_logs (id, tenant_id, call_id, status, duration_seconds, transcript, recording_ref, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (call_id) DO UPDATE
		SET status = $4,
			duration_seconds = COALESCE(EXCLUDED.duration_seconds, call_logs.duration_seconds),
			transcript = COALESCE(EXCLUDED.transcript, call_logs.transcript),
			recording_ref = COALESCE(EXCLUDED.recording_ref, call_logs.recording_ref),
			ended_at = now()
		RETURNING ` + callLogColumns

	return scanCallLog(r.pool.QueryRow(ctx, query,
		uuid.New(), tenantID, callID, CallCompleted, durationSeconds, transcript, recordingRef))
}

// GetCallByID fetches a call log by the external call id.
func (r *Repository) GetCallByID(ctx context.Context, callID string) (*CallLog, error) {
	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE call_id = $1`
	return scanCallLog(r.pool.QueryRow(ctx, query, callID))
}

// SetCallRecordingRef updates the archived recording reference for a call.
func (r *Repository) SetCallRecordingRef(ctx context.Context, callID, recordingRef string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE call_logs SET recording_ref = $2 WHERE call_id = $1`,
		callID, recordingRef)
	if err != nil {
		return fmt.Errorf("failed to set call recording ref: %w", err)
	}
	return nil
}

// ListCallsByTenant returns a tenant's call logs, newest first.
func (r *Repository) ListCallsByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]CallLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callLogColumns+` FROM call_logs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list call logs: %w", err)
	}
	defer rows.Close()

	var calls []CallLog
	for rows.Next() {
		call, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate call logs: %w", err)
	}
	return calls, nil
}
