package service

import (
	"context"
	"strings"
	"testing"

	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	byID map[uuid.UUID]*repository.Reservation
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[uuid.UUID]*repository.Reservation{}}
}

func (f *fakeStore) Insert(_ context.Context, res repository.Reservation) (*repository.Reservation, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	for _, existing := range f.byID {
		if existing.ConfirmationCode == res.ConfirmationCode {
			return nil, apperr.Conflict("duplicate confirmation code")
		}
	}
	stored := res
	f.byID[res.ID] = &stored
	return &stored, nil
}

func (f *fakeStore) GetByCode(_ context.Context, tenantID uuid.UUID, code string) (*repository.Reservation, error) {
	for _, res := range f.byID {
		if res.TenantID == tenantID && res.ConfirmationCode == code {
			return res, nil
		}
	}
	return nil, apperr.NotFound("reservation not found")
}

func (f *fakeStore) GetByCodeGlobal(_ context.Context, code string) (*repository.Reservation, error) {
	for _, res := range f.byID {
		if res.ConfirmationCode == code {
			return res, nil
		}
	}
	return nil, apperr.NotFound("reservation not found")
}

func (f *fakeStore) Update(_ context.Context, id uuid.UUID, fields repository.UpdateFields) (*repository.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("reservation not found")
	}
	if fields.GuestName != nil {
		res.GuestName = *fields.GuestName
	}
	if fields.Date != nil {
		res.Date = *fields.Date
	}
	if fields.Time != nil {
		res.Time = *fields.Time
	}
	if fields.PartySize != nil {
		res.PartySize = *fields.PartySize
	}
	if fields.SpecialRequests != nil {
		res.SpecialRequests = fields.SpecialRequests
	}
	return res, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*repository.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("reservation not found")
	}
	res.Status = status
	return res, nil
}

func (f *fakeStore) ListByTenant(_ context.Context, tenantID uuid.UUID, _, _ int) ([]repository.Reservation, error) {
	var out []repository.Reservation
	for _, res := range f.byID {
		if res.TenantID == tenantID {
			out = append(out, *res)
		}
	}
	return out, nil
}

type fakeCallStore struct {
	byCallID map[string]*repository.CallLog
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{byCallID: map[string]*repository.CallLog{}}
}

func (f *fakeCallStore) UpsertCallStart(_ context.Context, tenantID uuid.UUID, callID string, callerNumber *string) (*repository.CallLog, error) {
	if existing, ok := f.byCallID[callID]; ok {
		if callerNumber != nil {
			existing.CallerNumber = callerNumber
		}
		return existing, nil
	}
	call := &repository.CallLog{
		ID:           uuid.New(),
		TenantID:     tenantID,
		CallID:       callID,
		CallerNumber: callerNumber,
		Status:       repository.CallInProgress,
	}
	f.byCallID[callID] = call
	return call, nil
}

func (f *fakeCallStore) UpsertCallEnd(_ context.Context, tenantID uuid.UUID, callID string, duration *int, transcript, recordingRef *string) (*repository.CallLog, error) {
	call, ok := f.byCallID[callID]
	if !ok {
		call = &repository.CallLog{ID: uuid.New(), TenantID: tenantID, CallID: callID}
		f.byCallID[callID] = call
	}
	call.Status = repository.CallCompleted
	if duration != nil {
		call.DurationSeconds = duration
	}
	if transcript != nil {
		call.Transcript = transcript
	}
	if recordingRef != nil {
		call.RecordingRef = recordingRef
	}
	return call, nil
}

func (f *fakeCallStore) ListCallsByTenant(_ context.Context, tenantID uuid.UUID, _, _ int) ([]repository.CallLog, error) {
	var out []repository.CallLog
	for _, call := range f.byCallID {
		if call.TenantID == tenantID {
			out = append(out, *call)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeStore, *fakeCallStore) {
	store := newFakeStore()
	calls := newFakeCallStore()
	return New(store, calls, logger.New("development")), store, calls
}

func testTenant() *tenants.Tenant {
	return &tenants.Tenant{ID: uuid.New(), Name: "Bella Vista", Capacity: 40, MaxPartySize: 8}
}

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"7:30 PM", "19:30"},
		{"7:30PM", "19:30"},
		{"12:00 AM", "00:00"},
		{"12:00 PM", "12:00"},
		{"11:45 pm", "23:45"},
		{"09:15", "09:15"},
		{"19:30", "19:30"},
		{"whenever", "whenever"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTime(tc.in); got != tc.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConfirmationCodesUniqueAcrossManyCreates(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		code := GenerateConfirmationCode()
		if seen[code] {
			t.Fatalf("duplicate confirmation code after %d creates: %s", i, code)
		}
		seen[code] = true
		if !strings.HasPrefix(code, "TBL-") {
			t.Fatalf("unexpected code format: %s", code)
		}
	}
}

func TestCreateStoresNormalizedTimeAndConfirms(t *testing.T) {
	svc, store, _ := newTestService()
	tenant := testTenant()

	created, err := svc.Create(context.Background(), tenant, CreateInput{
		Guest:     Guest{Name: "Ada Lovelace", Email: "ada@example.com"},
		Date:      "2026-09-12",
		Time:      "7:30 PM",
		PartySize: 4,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Time != "19:30" {
		t.Errorf("expected normalized time 19:30, got %s", created.Time)
	}
	if created.Status != repository.StatusConfirmed {
		t.Errorf("expected confirmed status, got %s", created.Status)
	}
	if created.Source != repository.SourcePhone {
		t.Errorf("expected default phone source, got %s", created.Source)
	}
	if created.ConfirmationCode == "" {
		t.Error("expected a confirmation code")
	}
	if len(store.byID) != 1 {
		t.Errorf("expected 1 stored reservation, got %d", len(store.byID))
	}
}

func TestCreateRejectsOversizedParty(t *testing.T) {
	svc, _, _ := newTestService()
	tenant := testTenant() // max party size 8

	_, err := svc.Create(context.Background(), tenant, CreateInput{
		Guest:     Guest{Name: "Big Group"},
		Date:      "2026-09-12",
		Time:      "18:00",
		PartySize: 12,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestCreateKeepsUnparseableTimeVerbatim(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Create(context.Background(), testTenant(), CreateInput{
		Guest:     Guest{Name: "Flexible Guest"},
		Date:      "2026-09-12",
		Time:      "whenever",
		PartySize: 2,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Time != "whenever" {
		t.Errorf("expected pass-through time, got %q", created.Time)
	}
}

func TestUpdateFallsBackToGlobalLookup(t *testing.T) {
	svc, store, _ := newTestService()
	owner := testTenant()
	wrongTenant := testTenant()

	created, err := svc.Create(context.Background(), owner, CreateInput{
		Guest: Guest{Name: "Grace Hopper"}, Date: "2026-09-12", Time: "18:00", PartySize: 2,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	newSize := 3
	updated, err := svc.Update(context.Background(), wrongTenant, created.ConfirmationCode,
		UpdateInput{PartySize: &newSize}, ScopedThenGlobal)
	if err != nil {
		t.Fatalf("Update with global fallback returned error: %v", err)
	}
	if updated.PartySize != 3 {
		t.Errorf("expected party size 3, got %d", updated.PartySize)
	}

	// Scoped-only lookup from the wrong tenant must miss.
	_, err = svc.Update(context.Background(), wrongTenant, created.ConfirmationCode,
		UpdateInput{PartySize: &newSize}, ScopedOnly)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound for scoped-only lookup, got %v", err)
	}
	if store.byID[created.ID].PartySize != 3 {
		t.Error("scoped-only miss must not change the reservation")
	}
}

func TestUpdateNormalizesTimeField(t *testing.T) {
	svc, _, _ := newTestService()
	tenant := testTenant()

	created, err := svc.Create(context.Background(), tenant, CreateInput{
		Guest: Guest{Name: "Alan Turing"}, Date: "2026-09-12", Time: "18:00", PartySize: 2,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	newTime := "8:15 PM"
	updated, err := svc.Update(context.Background(), tenant, created.ConfirmationCode,
		UpdateInput{Time: &newTime}, ScopedOnly)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Time != "20:15" {
		t.Errorf("expected normalized time 20:15, got %s", updated.Time)
	}
}

func TestCancelIsTerminalAndIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	tenant := testTenant()

	created, err := svc.Create(context.Background(), tenant, CreateInput{
		Guest: Guest{Name: "Tim"}, Date: "2026-09-12", Time: "18:00", PartySize: 2,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first, err := svc.Cancel(context.Background(), tenant, created.ConfirmationCode, ScopedOnly)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if first.Status != repository.StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", first.Status)
	}

	second, err := svc.Cancel(context.Background(), tenant, created.ConfirmationCode, ScopedOnly)
	if err != nil {
		t.Fatalf("second Cancel returned error: %v", err)
	}
	if second.Status != repository.StatusCancelled {
		t.Fatalf("second cancel must not revert status, got %s", second.Status)
	}

	// A cancelled reservation cannot be updated back to life.
	size := 5
	_, err = svc.Update(context.Background(), tenant, created.ConfirmationCode,
		UpdateInput{PartySize: &size}, ScopedOnly)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict updating cancelled reservation, got %v", err)
	}
}

func TestRecordCallEndWithoutStartCreatesSingleCompletedRow(t *testing.T) {
	svc, _, calls := newTestService()
	tenantID := uuid.New()

	if err := svc.RecordCallEnd(context.Background(), tenantID, "X", 120, "hello", ""); err != nil {
		t.Fatalf("RecordCallEnd returned error: %v", err)
	}
	if err := svc.RecordCallEnd(context.Background(), tenantID, "X", 120, "hello", ""); err != nil {
		t.Fatalf("second RecordCallEnd returned error: %v", err)
	}

	if len(calls.byCallID) != 1 {
		t.Fatalf("expected exactly one call log row, got %d", len(calls.byCallID))
	}
	if calls.byCallID["X"].Status != repository.CallCompleted {
		t.Errorf("expected completed status, got %s", calls.byCallID["X"].Status)
	}
}
