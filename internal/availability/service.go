// Package availability decides whether a table exists for a requested slot,
// preferring live calendar data over local capacity accounting.
package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emmanuel582/backendtablenow/internal/calendar"
	ressvc "github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultCapacity = 50
	slotDuration    = time.Hour

	// Suggested slots are searched between 09:00 and 22:00, sliding in
	// 30-minute steps.
	suggestDayStart = 9 * time.Hour
	suggestDayEnd   = 22 * time.Hour
	suggestStep     = 30 * time.Minute
	maxSuggestions  = 3
)

const apologyMessage = "I'm sorry, I couldn't check availability right now. Please try again in a moment."

// Decision is the oracle's answer. It always exists: the voice channel has no
// way to retry on error, so every failure degrades into a negative decision.
type Decision struct {
	Available      bool     `json:"available"`
	Message        string   `json:"message"`
	SuggestedTimes []string `json:"suggestedTimes,omitempty"`
}

// CapacityStore sums confirmed party sizes for the capacity tier.
type CapacityStore interface {
	CountConfirmedPartySize(ctx context.Context, tenantID uuid.UUID, date, timeOfDay string) (int, error)
}

// Service is the availability oracle.
type Service struct {
	calendar calendar.Service
	store    CapacityStore
	log      *logger.Logger
}

// New creates a new availability service.
func New(cal calendar.Service, store CapacityStore, log *logger.Logger) *Service {
	return &Service{calendar: cal, store: store, log: log}
}

// Check decides availability for a tenant/date/time/party-size request.
// Tier 1 queries the tenant's calendar for busy intervals; a calendar
// transport failure falls through to tier 2 instead of failing the request.
// Tier 2 compares the local confirmed-party-size sum against capacity.
func (s *Service) Check(ctx context.Context, tenant *tenants.Tenant, date, timeOfDay string, partySize int) Decision {
	if partySize <= 0 || strings.TrimSpace(date) == "" || strings.TrimSpace(timeOfDay) == "" {
		return Decision{Available: false, Message: "I need a date, a time and a party size to check availability."}
	}
	if tenant.MaxPartySize > 0 && partySize > tenant.MaxPartySize {
		return Decision{
			Available: false,
			Message:   fmt.Sprintf("I'm sorry, the largest table we can book is for %d guests.", tenant.MaxPartySize),
		}
	}

	normalized := ressvc.NormalizeTime(timeOfDay)

	if len(tenant.CalendarCredential) > 0 {
		if decision, ok := s.checkCalendar(ctx, tenant, date, normalized); ok {
			return decision
		}
		// Calendar tier degraded; the capacity tier below still produces a
		// decision.
	}

	return s.checkCapacity(ctx, tenant, date, normalized, partySize)
}

// checkCalendar is tier 1. The second return value is false when this tier
// cannot decide (unparseable slot or calendar transport failure).
func (s *Service) checkCalendar(ctx context.Context, tenant *tenants.Tenant, date, timeOfDay string) (Decision, bool) {
	slotStart, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, time.Local)
	if err != nil {
		return Decision{}, false
	}

	dayStart := time.Date(slotStart.Year(), slotStart.Month(), slotStart.Day(), 0, 0, 0, 0, slotStart.Location())
	busy, err := s.calendar.QueryBusy(ctx, tenant.CalendarCredential, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		s.log.Error("calendar busy query failed, falling back to capacity",
			"tenant_id", tenant.ID, "error", err)
		return Decision{}, false
	}

	if !overlapsAny(slotStart, slotStart.Add(slotDuration), busy) {
		return Decision{
			Available: true,
			Message:   fmt.Sprintf("Yes, %s at %s is available.", date, timeOfDay),
		}, true
	}

	suggestions := suggestSlots(dayStart, busy)
	msg := fmt.Sprintf("I'm sorry, %s at %s is already booked.", date, timeOfDay)
	if len(suggestions) > 0 {
		msg += " We do have openings at " + strings.Join(suggestions, ", ") + "."
	}
	return Decision{Available: false, Message: msg, SuggestedTimes: suggestions}, true
}

// checkCapacity is tier 2.
func (s *Service) checkCapacity(ctx context.Context, tenant *tenants.Tenant, date, timeOfDay string, partySize int) Decision {
	booked, err := s.store.CountConfirmedPartySize(ctx, tenant.ID, date, timeOfDay)
	if err != nil {
		s.log.DatabaseError("count confirmed party size", err)
		return Decision{Available: false, Message: apologyMessage}
	}

	capacity := tenant.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	if capacity-booked >= partySize {
		return Decision{
			Available: true,
			Message:   fmt.Sprintf("Yes, we can seat %d on %s at %s.", partySize, date, timeOfDay),
		}
	}
	return Decision{
		Available: false,
		Message:   fmt.Sprintf("I'm sorry, we don't have room for %d on %s at %s.", partySize, date, timeOfDay),
	}
}

func overlapsAny(start, end time.Time, busy []calendar.BusyInterval) bool {
	for _, interval := range busy {
		if start.Before(interval.End) && end.After(interval.Start) {
			return true
		}
	}
	return false
}

// suggestSlots slides a 1-hour candidate window over the day in 30-minute
// steps and returns the first free candidates as HH:MM strings.
func suggestSlots(dayStart time.Time, busy []calendar.BusyInterval) []string {
	var suggestions []string
	for offset := suggestDayStart; offset <= suggestDayEnd; offset += suggestStep {
		candidate := dayStart.Add(offset)
		if !overlapsAny(candidate, candidate.Add(slotDuration), busy) {
			suggestions = append(suggestions, candidate.Format("15:04"))
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}
	return suggestions
}
