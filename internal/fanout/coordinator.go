// Package fanout dispatches the independent side effects of a committed
// reservation transition: calendar sync, CRM mirroring and notifications.
// No effect failure may retract the committed record or stop its siblings.
package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/emmanuel582/backendtablenow/internal/calendar"
	"github.com/emmanuel582/backendtablenow/internal/crm"
	"github.com/emmanuel582/backendtablenow/internal/email"
	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

// EffectKind names one side effect.
type EffectKind string

const (
	CalendarCreate          EffectKind = "calendar_create"
	CalendarUpdate          EffectKind = "calendar_update"
	CalendarDelete          EffectKind = "calendar_delete"
	CrmUpsertContactAndDeal EffectKind = "crm_upsert_contact_and_deal"
	CrmUpdateDealStage      EffectKind = "crm_update_deal_stage"
	NotifyGuest             EffectKind = "notify_guest"
	NotifyTenant            EffectKind = "notify_tenant"
)

// Cause is the lifecycle transition that triggered the dispatch. It selects
// the notification templates and the CRM stage.
type Cause string

const (
	CauseCreated   Cause = "created"
	CauseUpdated   Cause = "updated"
	CauseCancelled Cause = "cancelled"
)

// ReservationWriter persists external-system ids back onto the reservation.
type ReservationWriter interface {
	SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error
	SetCRMDealID(ctx context.Context, id uuid.UUID, dealID string) error
}

// Coordinator runs side effects sequentially, each one independently caught.
type Coordinator struct {
	calendar calendar.Service
	crm      crm.Service
	sender   email.Sender
	writer   ReservationWriter
	log      *logger.Logger
}

// New creates a new side-effect coordinator.
func New(cal calendar.Service, crmSvc crm.Service, sender email.Sender, writer ReservationWriter, log *logger.Logger) *Coordinator {
	return &Coordinator{calendar: cal, crm: crmSvc, sender: sender, writer: writer, log: log}
}

// OnCreated dispatches the standard effect set for a new reservation.
func (c *Coordinator) OnCreated(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation) {
	c.Dispatch(ctx, tenant, res, CauseCreated,
		CalendarCreate, CrmUpsertContactAndDeal, NotifyGuest, NotifyTenant)
}

// OnUpdated dispatches the standard effect set for a changed reservation.
func (c *Coordinator) OnUpdated(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation) {
	c.Dispatch(ctx, tenant, res, CauseUpdated,
		CalendarUpdate, CrmUpdateDealStage, NotifyGuest, NotifyTenant)
}

// OnCancelled dispatches the standard effect set for a cancelled reservation.
func (c *Coordinator) OnCancelled(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation) {
	c.Dispatch(ctx, tenant, res, CauseCancelled,
		CalendarDelete, CrmUpdateDealStage, NotifyGuest, NotifyTenant)
}

// Dispatch runs the requested effects one at a time. Every effect completes
// (success or logged failure) before Dispatch returns; a failure is logged
// with enough context to replay it by hand and never propagates.
func (c *Coordinator) Dispatch(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation, cause Cause, effects ...EffectKind) {
	for _, effect := range effects {
		if err := c.runEffect(ctx, tenant, res, cause, effect); err != nil {
			c.log.EffectFailed(string(effect), tenant.ID.String(), res.ConfirmationCode, err)
		}
	}
}

func (c *Coordinator) runEffect(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation, cause Cause, effect EffectKind) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect panicked: %v", r)
		}
	}()

	switch effect {
	case CalendarCreate:
		return c.calendarCreate(ctx, tenant, res)
	case CalendarUpdate:
		return c.calendarUpdate(ctx, tenant, res)
	case CalendarDelete:
		return c.calendarDelete(ctx, tenant, res)
	case CrmUpsertContactAndDeal:
		return c.crmUpsert(ctx, tenant, res)
	case CrmUpdateDealStage:
		return c.crmUpdateStage(ctx, tenant, res, cause)
	case NotifyGuest:
		return c.notifyGuest(ctx, tenant, res, cause)
	case NotifyTenant:
		return c.notifyTenant(ctx, tenant, res, cause)
	default:
		return fmt.Errorf("unknown effect kind %q", effect)
	}
}

func (c *Coordinator) calendarCreate(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation) error {
	if len(tenant.CalendarCredential) == 0 {
		return nil
	}
	event, err := buildCalendarEvent(tenant, res)
	if err != nil {
		return err
	}
	eventID, err := c.calendar.CreateEvent(ctx, tenant.CalendarCredential, event)
	if err != nil {
		return err
	}
	if err := c.writer.SetCalendarEventID(ctx, res.ID, eventID); err != nil {
		// The event exists either way; losing the back-reference only costs a
		// manual cleanup later.
		c.log.Error("failed to persist calendar event id",
			"reservation_id", res.ID, "event_id", eventID, "error", err)
	}
	return nil
}

func (c *Coordinator) calendarUpdate(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation) error {
	if len(tenant.CalendarCredential) == 0 {
		return nil
	}
	if res.CalendarEventID == nil {
		// No event to patch, usually because creation predates the calendar
		// connection. Create one now.
		return c.calendarCreate(ctx, tenant, res)
	}
	event, err := buildCalendarEvent(tenant, res)
	if err != nil {
		return err
	}
	return c.calendar.UpdateEvent(ctx, tenant.CalendarCredential, *res.CalendarEventID, event)
}

func (c *Coordinator) calendarDelete(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation) error {
	if len(tenant.CalendarCredential) == 0 || res.CalendarEventID == nil {
		return nil
	}
	return c.calendar.DeleteEvent(ctx, tenant.CalendarCredential, *res.CalendarEventID)
}

func (c *Coordinator) crmUpsert(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation) error {
	if !tenant.CRMEnabled {
		return nil
	}
	contact := crm.Contact{Name: res.GuestName}
	if res.GuestEmail != nil {
		contact.Email = *res.GuestEmail
	}
	if res.GuestPhone != nil {
		contact.Phone = *res.GuestPhone
	}
	dealID, err := c.crm.UpsertContactAndDeal(ctx, tenant.ID.String(), contact, crm.Deal{
		Title:     fmt.Sprintf("Reservation %s on %s", res.ConfirmationCode, res.Date),
		Stage:     crm.StageBooked,
		Amount:    res.PartySize,
		Reference: res.ConfirmationCode,
	})
	if err != nil {
		return err
	}
	if err := c.writer.SetCRMDealID(ctx, res.ID, dealID); err != nil {
		c.log.Error("failed to persist crm deal id",
			"reservation_id", res.ID, "deal_id", dealID, "error", err)
	}
	return nil
}

func (c *Coordinator) crmUpdateStage(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation, cause Cause) error {
	if !tenant.CRMEnabled {
		return nil
	}
	stage := crm.StageUpdated
	if cause == CauseCancelled {
		stage = crm.StageCancelled
	}
	return c.crm.UpdateDealStage(ctx, tenant.ID.String(), res.ConfirmationCode, stage)
}

func (c *Coordinator) notifyGuest(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation, cause Cause) error {
	if res.GuestEmail == nil {
		return nil
	}
	details := buildDetails(tenant, res)

	switch cause {
	case CauseCreated:
		var attachments []email.Attachment
		if qr, err := email.ConfirmationQR(res.ConfirmationCode); err == nil {
			attachments = append(attachments, qr)
		} else {
			c.log.Error("failed to render confirmation qr", "error", err)
		}
		return c.sender.SendGuestConfirmation(ctx, *res.GuestEmail, details, attachments...)
	case CauseCancelled:
		return c.sender.SendGuestCancellation(ctx, *res.GuestEmail, details)
	default:
		return c.sender.SendGuestUpdate(ctx, *res.GuestEmail, details)
	}
}

func (c *Coordinator) notifyTenant(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation, cause Cause) error {
	if tenant.Email == "" {
		return nil
	}
	var headline string
	switch cause {
	case CauseCreated:
		headline = fmt.Sprintf("New reservation for %d on %s at %s", res.PartySize, res.Date, res.Time)
	case CauseCancelled:
		headline = fmt.Sprintf("Reservation %s was cancelled", res.ConfirmationCode)
	default:
		headline = fmt.Sprintf("Reservation %s was updated", res.ConfirmationCode)
	}
	return c.sender.SendTenantNotification(ctx, tenant.Email, headline, buildDetails(tenant, res))
}

func buildDetails(tenant *tenants.Tenant, res *repository.Reservation) email.ReservationDetails {
	details := email.ReservationDetails{
		GuestName:        res.GuestName,
		RestaurantName:   tenant.Name,
		Date:             res.Date,
		Time:             res.Time,
		PartySize:        res.PartySize,
		ConfirmationCode: res.ConfirmationCode,
	}
	if res.SpecialRequests != nil {
		details.SpecialRequests = *res.SpecialRequests
	}
	return details
}

// buildCalendarEvent converts the lenient text date/time into a concrete
// 1-hour event window. Unparseable values make the calendar effect fail,
// which is logged like any other effect failure; the reservation itself is
// unaffected.
func buildCalendarEvent(tenant *tenants.Tenant, res *repository.Reservation) (calendar.EventInput, error) {
	start, err := parseSlot(res.Date, res.Time)
	if err != nil {
		return calendar.EventInput{}, err
	}
	description := fmt.Sprintf("Confirmation code: %s", res.ConfirmationCode)
	if res.SpecialRequests != nil {
		description += "\nSpecial requests: " + *res.SpecialRequests
	}
	return calendar.EventInput{
		Summary:     fmt.Sprintf("Reservation: %s (%d guests)", res.GuestName, res.PartySize),
		Description: description,
		Start:       start,
		End:         start.Add(time.Hour),
	}, nil
}

func parseSlot(date, timeOfDay string) (time.Time, error) {
	slot, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("reservation slot %q %q is not a concrete time: %w", date, timeOfDay, err)
	}
	return slot, nil
}
