package voice

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emmanuel582/backendtablenow/internal/availability"
	"github.com/emmanuel582/backendtablenow/internal/calendar"
	"github.com/emmanuel582/backendtablenow/internal/knowledge"
	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	ressvc "github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

type fakeFinder struct {
	byAssistantID map[string]*tenants.Tenant
}

func (f *fakeFinder) GetByPhoneNumberID(context.Context, string) (*tenants.Tenant, error) {
	return nil, apperr.NotFound("tenant not found")
}

func (f *fakeFinder) GetByPhoneNumber(context.Context, string) (*tenants.Tenant, error) {
	return nil, apperr.NotFound("tenant not found")
}

func (f *fakeFinder) GetByAssistantID(_ context.Context, key string) (*tenants.Tenant, error) {
	if t, ok := f.byAssistantID[key]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("tenant not found")
}

type memStore struct {
	byID map[uuid.UUID]*repository.Reservation
}

func newMemStore() *memStore {
	return &memStore{byID: map[uuid.UUID]*repository.Reservation{}}
}

func (m *memStore) Insert(_ context.Context, res repository.Reservation) (*repository.Reservation, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	stored := res
	m.byID[res.ID] = &stored
	return &stored, nil
}

func (m *memStore) GetByCode(_ context.Context, tenantID uuid.UUID, code string) (*repository.Reservation, error) {
	for _, res := range m.byID {
		if res.TenantID == tenantID && res.ConfirmationCode == code {
			return res, nil
		}
	}
	return nil, apperr.NotFound("reservation not found")
}

func (m *memStore) GetByCodeGlobal(_ context.Context, code string) (*repository.Reservation, error) {
	for _, res := range m.byID {
		if res.ConfirmationCode == code {
			return res, nil
		}
	}
	return nil, apperr.NotFound("reservation not found")
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, fields repository.UpdateFields) (*repository.Reservation, error) {
	res, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("reservation not found")
	}
	if fields.PartySize != nil {
		res.PartySize = *fields.PartySize
	}
	if fields.Time != nil {
		res.Time = *fields.Time
	}
	return res, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*repository.Reservation, error) {
	res, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("reservation not found")
	}
	res.Status = status
	return res, nil
}

func (m *memStore) ListByTenant(context.Context, uuid.UUID, int, int) ([]repository.Reservation, error) {
	return nil, nil
}

type memCallStore struct {
	byCallID map[string]*repository.CallLog
}

func newMemCallStore() *memCallStore {
	return &memCallStore{byCallID: map[string]*repository.CallLog{}}
}

func (m *memCallStore) UpsertCallStart(_ context.Context, tenantID uuid.UUID, callID string, callerNumber *string) (*repository.CallLog, error) {
	call, ok := m.byCallID[callID]
	if !ok {
		call = &repository.CallLog{ID: uuid.New(), TenantID: tenantID, CallID: callID, Status: repository.CallInProgress}
		m.byCallID[callID] = call
	}
	call.CallerNumber = callerNumber
	return call, nil
}

func (m *memCallStore) UpsertCallEnd(_ context.Context, tenantID uuid.UUID, callID string, duration *int, transcript, recordingRef *string) (*repository.CallLog, error) {
	call, ok := m.byCallID[callID]
	if !ok {
		call = &repository.CallLog{ID: uuid.New(), TenantID: tenantID, CallID: callID}
		m.byCallID[callID] = call
	}
	call.Status = repository.CallCompleted
	return call, nil
}

func (m *memCallStore) ListCallsByTenant(context.Context, uuid.UUID, int, int) ([]repository.CallLog, error) {
	return nil, nil
}

type stubCalendar struct{}

func (stubCalendar) CreateEvent(context.Context, []byte, calendar.EventInput) (string, error) {
	return "evt", nil
}
func (stubCalendar) UpdateEvent(context.Context, []byte, string, calendar.EventInput) error {
	return nil
}
func (stubCalendar) DeleteEvent(context.Context, []byte, string) error { return nil }
func (stubCalendar) QueryBusy(context.Context, []byte, time.Time, time.Time) ([]calendar.BusyInterval, error) {
	return nil, nil
}

type stubCapacity struct{}

func (stubCapacity) CountConfirmedPartySize(context.Context, uuid.UUID, string, string) (int, error) {
	return 0, nil
}

type nopEffects struct {
	created   int
	updated   int
	cancelled int
}

func (n *nopEffects) OnCreated(context.Context, *tenants.Tenant, *repository.Reservation) {
	n.created++
}
func (n *nopEffects) OnUpdated(context.Context, *tenants.Tenant, *repository.Reservation) {
	n.updated++
}
func (n *nopEffects) OnCancelled(context.Context, *tenants.Tenant, *repository.Reservation) {
	n.cancelled++
}

func newTestVoiceService(tenant *tenants.Tenant) (*Service, *memStore, *nopEffects) {
	log := logger.New("development")
	finder := &fakeFinder{byAssistantID: map[string]*tenants.Tenant{}}
	if tenant.AssistantID != nil {
		finder.byAssistantID[*tenant.AssistantID] = tenant
	}
	resolver := tenants.NewResolver(finder, log)

	store := newMemStore()
	reservations := ressvc.New(store, newMemCallStore(), log)
	avail := availability.New(stubCalendar{}, stubCapacity{}, log)
	effects := &nopEffects{}

	svc := NewService(resolver, reservations, avail, knowledge.StaticService{}, effects, nil, log)
	return svc, store, effects
}

func assistantTenant() *tenants.Tenant {
	assistantID := "asst-1"
	return &tenants.Tenant{
		ID:           uuid.New(),
		Name:         "Bella Vista",
		Capacity:     40,
		MaxPartySize: 10,
		AssistantID:  &assistantID,
	}
}

func TestToolCallBatchIsolatesMalformedArguments(t *testing.T) {
	tenant := assistantTenant()
	svc, _, _ := newTestVoiceService(tenant)

	ev := Normalize([]byte(`{"type":"tool-calls","assistantId":"asst-1","toolCalls":[
		{"id":"t1","function":{"name":"create_booking","arguments":"{broken"}},
		{"id":"t2","function":{"name":"check_availability","arguments":{"date":"2026-09-12","time":"18:00","partySize":4}}}
	]}`))

	results := svc.HandleToolCalls(context.Background(), ev)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error == "" {
		t.Error("malformed arguments must produce a per-call error")
	}
	decision, ok := results[1].Result.(availability.Decision)
	if !ok {
		t.Fatalf("expected availability decision, got %T", results[1].Result)
	}
	if !decision.Available {
		t.Errorf("expected available slot, got %+v", decision)
	}
}

func TestCreateBookingToolDispatchesEffects(t *testing.T) {
	tenant := assistantTenant()
	svc, store, effects := newTestVoiceService(tenant)

	ev := Normalize([]byte(`{"type":"tool-calls","assistantId":"asst-1","toolCalls":[
		{"id":"t1","function":{"name":"create_booking","arguments":{"name":"Ada","date":"2026-09-12","time":"7:30 PM","partySize":4}}}
	]}`))

	results := svc.HandleToolCalls(context.Background(), ev)
	if results[0].Error != "" {
		t.Fatalf("unexpected tool error: %s", results[0].Error)
	}
	if effects.created != 1 {
		t.Errorf("expected side effects to run once, got %d", effects.created)
	}
	if len(store.byID) != 1 {
		t.Fatalf("expected stored reservation, got %d", len(store.byID))
	}
	for _, res := range store.byID {
		if res.Time != "19:30" {
			t.Errorf("expected normalized time, got %s", res.Time)
		}
		if res.Source != repository.SourcePhone {
			t.Errorf("expected phone source, got %s", res.Source)
		}
	}
}

func TestUpdateBookingWithExplicitIDDisablesGlobalFallback(t *testing.T) {
	owner := assistantTenant()
	svc, store, _ := newTestVoiceService(owner)

	// Seed a reservation owned by a different tenant.
	foreign := &repository.Reservation{
		ID:               uuid.New(),
		TenantID:         uuid.New(),
		ConfirmationCode: "TBL-1-FOREIGN",
		GuestName:        "Grace",
		Date:             "2026-09-12",
		Time:             "18:00",
		PartySize:        2,
		Status:           repository.StatusConfirmed,
	}
	store.byID[foreign.ID] = foreign

	// Without an id the fallback finds the foreign reservation.
	ev := Normalize([]byte(`{"type":"tool-calls","assistantId":"asst-1","toolCalls":[
		{"id":"t1","function":{"name":"update_booking","arguments":{"confirmationCode":"TBL-1-FOREIGN","partySize":3}}}
	]}`))
	results := svc.HandleToolCalls(context.Background(), ev)
	if results[0].Error != "" {
		t.Fatalf("expected global fallback to succeed, got %s", results[0].Error)
	}

	// An explicit id pins the lookup to the resolved tenant, which misses.
	ev = Normalize([]byte(`{"type":"tool-calls","assistantId":"asst-1","toolCalls":[
		{"id":"t2","function":{"name":"update_booking","arguments":{"id":"abc","confirmationCode":"TBL-1-FOREIGN","partySize":5}}}
	]}`))
	results = svc.HandleToolCalls(context.Background(), ev)
	if results[0].Error == "" {
		t.Fatal("expected scoped-only lookup to miss")
	}
	if foreign.PartySize != 3 {
		t.Errorf("scoped-only miss must not touch the reservation, party size is %d", foreign.PartySize)
	}
}

func TestFunctionCallPathUsesAssistantIDOnly(t *testing.T) {
	tenant := assistantTenant()
	svc, _, _ := newTestVoiceService(tenant)

	ev := Normalize([]byte(`{"type":"function-call","assistantId":"asst-1","functionCall":{"name":"answer_question","parameters":{"question":"parking?"}}}`))
	result := svc.HandleFunctionCall(context.Background(), ev)
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	ev = Normalize([]byte(`{"type":"function-call","phoneNumber":{"id":"p1"},"functionCall":{"name":"answer_question","parameters":{}}}`))
	result = svc.HandleFunctionCall(context.Background(), ev)
	if result.Error == "" {
		t.Fatal("expected failure without an assistant id, phone keys must not be used")
	}
}

func TestUnknownToolReportsValidationError(t *testing.T) {
	tenant := assistantTenant()
	svc, _, _ := newTestVoiceService(tenant)

	ev := Normalize([]byte(`{"type":"tool-calls","assistantId":"asst-1","toolCalls":[
		{"id":"t1","function":{"name":"order_pizza","arguments":{}}}
	]}`))
	results := svc.HandleToolCalls(context.Background(), ev)
	if !strings.Contains(results[0].Error, "order_pizza") {
		t.Errorf("expected unknown-tool error, got %q", results[0].Error)
	}
}
