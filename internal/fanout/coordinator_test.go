package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emmanuel582/backendtablenow/internal/calendar"
	"github.com/emmanuel582/backendtablenow/internal/crm"
	"github.com/emmanuel582/backendtablenow/internal/email"
	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

type fakeCalendar struct {
	createdEvents int
	deletedEvents []string
	failCreate    bool
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ []byte, _ calendar.EventInput) (string, error) {
	if f.failCreate {
		return "", errors.New("calendar unreachable")
	}
	f.createdEvents++
	return "evt-123", nil
}

func (f *fakeCalendar) UpdateEvent(_ context.Context, _ []byte, _ string, _ calendar.EventInput) error {
	return nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, _ []byte, eventID string) error {
	f.deletedEvents = append(f.deletedEvents, eventID)
	return nil
}

func (f *fakeCalendar) QueryBusy(_ context.Context, _ []byte, _, _ time.Time) ([]calendar.BusyInterval, error) {
	return nil, nil
}

type fakeCRM struct {
	upserts      int
	stageChanges []string
	fail         bool
	panicInstead bool
}

func (f *fakeCRM) UpsertContactAndDeal(_ context.Context, _ string, _ crm.Contact, _ crm.Deal) (string, error) {
	if f.panicInstead {
		panic("crm client blew up")
	}
	if f.fail {
		return "", errors.New("crm rejected the deal")
	}
	f.upserts++
	return "deal-9", nil
}

func (f *fakeCRM) UpdateDealStage(_ context.Context, _, _, stage string) error {
	if f.fail {
		return errors.New("crm rejected the stage change")
	}
	f.stageChanges = append(f.stageChanges, stage)
	return nil
}

type fakeSender struct {
	guestEmails  int
	tenantEmails int
}

func (f *fakeSender) SendGuestConfirmation(_ context.Context, _ string, _ email.ReservationDetails, _ ...email.Attachment) error {
	f.guestEmails++
	return nil
}
func (f *fakeSender) SendGuestUpdate(_ context.Context, _ string, _ email.ReservationDetails) error {
	f.guestEmails++
	return nil
}
func (f *fakeSender) SendGuestCancellation(_ context.Context, _ string, _ email.ReservationDetails) error {
	f.guestEmails++
	return nil
}
func (f *fakeSender) SendGuestReminder(_ context.Context, _ string, _ email.ReservationDetails) error {
	f.guestEmails++
	return nil
}
func (f *fakeSender) SendTenantNotification(_ context.Context, _, _ string, _ email.ReservationDetails) error {
	f.tenantEmails++
	return nil
}

type fakeWriter struct {
	calendarEventIDs map[uuid.UUID]string
	crmDealIDs       map[uuid.UUID]string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		calendarEventIDs: map[uuid.UUID]string{},
		crmDealIDs:       map[uuid.UUID]string{},
	}
}

func (f *fakeWriter) SetCalendarEventID(_ context.Context, id uuid.UUID, eventID string) error {
	f.calendarEventIDs[id] = eventID
	return nil
}

func (f *fakeWriter) SetCRMDealID(_ context.Context, id uuid.UUID, dealID string) error {
	f.crmDealIDs[id] = dealID
	return nil
}

func strPtr(s string) *string { return &s }

func testFixture() (*tenants.Tenant, *repository.Reservation) {
	tenant := &tenants.Tenant{
		ID:                 uuid.New(),
		Name:               "Bella Vista",
		Email:              "owner@bellavista.example",
		CRMEnabled:         true,
		CalendarCredential: []byte(`{"access_token":"t"}`),
	}
	res := &repository.Reservation{
		ID:               uuid.New(),
		TenantID:         tenant.ID,
		ConfirmationCode: "TBL-1-ABCDEF",
		GuestName:        "Ada",
		GuestEmail:       strPtr("ada@example.com"),
		Date:             "2026-09-12",
		Time:             "19:30",
		PartySize:        4,
		Status:           repository.StatusConfirmed,
	}
	return tenant, res
}

func TestDispatchIsolatesCrmFailure(t *testing.T) {
	cal := &fakeCalendar{}
	crmSvc := &fakeCRM{fail: true}
	sender := &fakeSender{}
	writer := newFakeWriter()
	coord := New(cal, crmSvc, sender, writer, logger.New("development"))

	tenant, res := testFixture()
	coord.OnCreated(context.Background(), tenant, res)

	if cal.createdEvents != 1 {
		t.Errorf("expected calendar event despite crm failure, got %d", cal.createdEvents)
	}
	if sender.guestEmails != 1 || sender.tenantEmails != 1 {
		t.Errorf("expected both notifications despite crm failure, got guest=%d tenant=%d",
			sender.guestEmails, sender.tenantEmails)
	}
}

func TestDispatchRecoversPanickingEffect(t *testing.T) {
	cal := &fakeCalendar{}
	crmSvc := &fakeCRM{panicInstead: true}
	sender := &fakeSender{}
	coord := New(cal, crmSvc, sender, newFakeWriter(), logger.New("development"))

	tenant, res := testFixture()
	// Must not panic past Dispatch.
	coord.OnCreated(context.Background(), tenant, res)

	if sender.guestEmails != 1 {
		t.Errorf("expected guest notification after panicking sibling, got %d", sender.guestEmails)
	}
}

func TestCalendarCreatePersistsEventID(t *testing.T) {
	cal := &fakeCalendar{}
	writer := newFakeWriter()
	coord := New(cal, &fakeCRM{}, &fakeSender{}, writer, logger.New("development"))

	tenant, res := testFixture()
	coord.Dispatch(context.Background(), tenant, res, CauseCreated, CalendarCreate)

	if writer.calendarEventIDs[res.ID] != "evt-123" {
		t.Errorf("expected persisted event id evt-123, got %q", writer.calendarEventIDs[res.ID])
	}
}

func TestCalendarEffectsSkipWithoutCredential(t *testing.T) {
	cal := &fakeCalendar{failCreate: true}
	coord := New(cal, &fakeCRM{}, &fakeSender{}, newFakeWriter(), logger.New("development"))

	tenant, res := testFixture()
	tenant.CalendarCredential = nil
	coord.Dispatch(context.Background(), tenant, res, CauseCreated, CalendarCreate)

	if cal.createdEvents != 0 {
		t.Errorf("expected no calendar call without a credential")
	}
}

func TestCancelledDispatchDeletesEventAndMovesStage(t *testing.T) {
	cal := &fakeCalendar{}
	crmSvc := &fakeCRM{}
	coord := New(cal, crmSvc, &fakeSender{}, newFakeWriter(), logger.New("development"))

	tenant, res := testFixture()
	res.Status = repository.StatusCancelled
	res.CalendarEventID = strPtr("evt-55")
	coord.OnCancelled(context.Background(), tenant, res)

	if len(cal.deletedEvents) != 1 || cal.deletedEvents[0] != "evt-55" {
		t.Errorf("expected calendar delete of evt-55, got %v", cal.deletedEvents)
	}
	if len(crmSvc.stageChanges) != 1 || crmSvc.stageChanges[0] != crm.StageCancelled {
		t.Errorf("expected crm stage cancelled, got %v", crmSvc.stageChanges)
	}
}
