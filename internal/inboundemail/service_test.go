package inboundemail

import (
	"context"
	"testing"

	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	ressvc "github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

type fakeTenantStore struct {
	tenant *tenants.Tenant
}

func (f *fakeTenantStore) GetByID(_ context.Context, id uuid.UUID) (*tenants.Tenant, error) {
	if f.tenant != nil && f.tenant.ID == id {
		return f.tenant, nil
	}
	return nil, apperr.NotFound("tenant not found")
}

type fakeStore struct {
	inserted []repository.Reservation
}

func (f *fakeStore) Insert(_ context.Context, res repository.Reservation) (*repository.Reservation, error) {
	res.ID = uuid.New()
	f.inserted = append(f.inserted, res)
	return &res, nil
}

func (f *fakeStore) GetByCode(context.Context, uuid.UUID, string) (*repository.Reservation, error) {
	return nil, apperr.NotFound("reservation not found")
}

func (f *fakeStore) GetByCodeGlobal(context.Context, string) (*repository.Reservation, error) {
	return nil, apperr.NotFound("reservation not found")
}

func (f *fakeStore) Update(context.Context, uuid.UUID, repository.UpdateFields) (*repository.Reservation, error) {
	return nil, apperr.NotFound("reservation not found")
}

func (f *fakeStore) UpdateStatus(context.Context, uuid.UUID, string) (*repository.Reservation, error) {
	return nil, apperr.NotFound("reservation not found")
}

func (f *fakeStore) ListByTenant(context.Context, uuid.UUID, int, int) ([]repository.Reservation, error) {
	return nil, nil
}

type fakeCallStore struct{}

func (fakeCallStore) UpsertCallStart(context.Context, uuid.UUID, string, *string) (*repository.CallLog, error) {
	return &repository.CallLog{}, nil
}

func (fakeCallStore) UpsertCallEnd(context.Context, uuid.UUID, string, *int, *string, *string) (*repository.CallLog, error) {
	return &repository.CallLog{}, nil
}

func (fakeCallStore) ListCallsByTenant(context.Context, uuid.UUID, int, int) ([]repository.CallLog, error) {
	return nil, nil
}

type countingEffects struct {
	created int
}

func (c *countingEffects) OnCreated(context.Context, *tenants.Tenant, *repository.Reservation) {
	c.created++
}

func newTestService(tenant *tenants.Tenant) (*Service, *fakeStore, *countingEffects) {
	log := logger.New("development")
	store := &fakeStore{}
	effects := &countingEffects{}
	svc := NewService(&fakeTenantStore{tenant: tenant}, ressvc.New(store, fakeCallStore{}, log), effects, log)
	return svc, store, effects
}

func bookingBody() string {
	return "Name: Ada Lovelace\nDate: 2026-09-12\nTime: 7:30 PM\nGuests: 4\nEmail: ada@example.com"
}

func TestHandleEmailCreatesReservation(t *testing.T) {
	tenant := &tenants.Tenant{ID: uuid.New(), Name: "Bella Vista", MaxPartySize: 10}
	svc, store, effects := newTestService(tenant)

	created, err := svc.HandleEmail(context.Background(), ParsedEmailEvent{
		To:   "bookings-" + tenant.ID.String() + "@tablenow.example",
		Body: bookingBody(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected one stored reservation, got %d", len(store.inserted))
	}
	res := store.inserted[0]
	if res.Source != repository.SourceEmail {
		t.Errorf("expected email source, got %s", res.Source)
	}
	if res.Time != "19:30" {
		t.Errorf("expected normalized time, got %s", res.Time)
	}
	if created.ConfirmationCode == "" {
		t.Error("expected a confirmation code")
	}
	if effects.created != 1 {
		t.Errorf("expected side effects to run once, got %d", effects.created)
	}
}

func TestHandleEmailRejectsMalformedRecipient(t *testing.T) {
	tenant := &tenants.Tenant{ID: uuid.New()}
	svc, store, _ := newTestService(tenant)

	_, err := svc.HandleEmail(context.Background(), ParsedEmailEvent{
		To:   "bookings@tablenow.example",
		Body: bookingBody(),
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad-request, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Error("rejected email must not create a reservation")
	}
}

func TestHandleEmailRejectsUnknownTenant(t *testing.T) {
	svc, _, _ := newTestService(&tenants.Tenant{ID: uuid.New()})

	_, err := svc.HandleEmail(context.Background(), ParsedEmailEvent{
		To:   "bookings-" + uuid.NewString() + "@tablenow.example",
		Body: bookingBody(),
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad-request, got %v", err)
	}
}

func TestHandleEmailRejectsBodyWithoutBookingFields(t *testing.T) {
	tenant := &tenants.Tenant{ID: uuid.New()}
	svc, _, effects := newTestService(tenant)

	_, err := svc.HandleEmail(context.Background(), ParsedEmailEvent{
		To:   "bookings-" + tenant.ID.String() + "@tablenow.example",
		Body: "Thanks for subscribing to our newsletter!",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if effects.created != 0 {
		t.Error("no side effects on rejection")
	}
}
