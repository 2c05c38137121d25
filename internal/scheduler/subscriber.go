package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/emmanuel582/backendtablenow/internal/events"
	"github.com/emmanuel582/backendtablenow/platform/logger"
)

// ReminderLead is how long before the reserved slot the guest is reminded.
const ReminderLead = 2 * time.Hour

const slotLayout = "2006-01-02 15:04"

// Subscriber schedules a reminder for every new reservation with a
// machine-readable slot. Reservations whose time never normalized to HH:MM
// ("after the show") get no reminder; there is no slot to anchor one to.
type Subscriber struct {
	scheduler ReminderScheduler
	log       *logger.Logger
}

// NewSubscriber creates a new reminder subscriber.
func NewSubscriber(scheduler ReminderScheduler, log *logger.Logger) *Subscriber {
	return &Subscriber{scheduler: scheduler, log: log}
}

// Register subscribes to reservation-created events.
func (s *Subscriber) Register(bus events.Bus) {
	bus.Subscribe(events.ReservationCreated{}.EventName(), events.HandlerFunc(s.handleCreated))
}

func (s *Subscriber) handleCreated(ctx context.Context, event events.Event) error {
	created, ok := event.(events.ReservationCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	runAt, ok := ReminderTime(created.Date, created.Time, time.Now())
	if !ok {
		return nil
	}

	err := s.scheduler.ScheduleReservationReminder(ctx, ReservationReminderPayload{
		TenantID:         created.TenantID.String(),
		ConfirmationCode: created.ConfirmationCode,
	}, runAt)
	if err != nil {
		return fmt.Errorf("schedule reminder for %s: %w", created.ConfirmationCode, err)
	}

	s.log.Info("reservation reminder scheduled",
		"confirmation_code", created.ConfirmationCode,
		"run_at", runAt.Format(time.RFC3339),
	)
	return nil
}

// ReminderTime computes when to remind for a slot, or false when the slot is
// unparseable or the reminder would already be in the past.
func ReminderTime(date, timeOfDay string, now time.Time) (time.Time, bool) {
	slot, err := time.ParseInLocation(slotLayout, date+" "+timeOfDay, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	runAt := slot.Add(-ReminderLead)
	if !runAt.After(now) {
		return time.Time{}, false
	}
	return runAt, true
}
