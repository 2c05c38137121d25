package voice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/emmanuel582/backendtablenow/internal/availability"
	"github.com/emmanuel582/backendtablenow/internal/events"
	"github.com/emmanuel582/backendtablenow/internal/knowledge"
	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	ressvc "github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"
)

// Tool names the voice assistant may invoke mid-call.
const (
	toolCheckAvailability = "check_availability"
	toolCreateBooking     = "create_booking"
	toolUpdateBooking     = "update_booking"
	toolCancelBooking     = "cancel_booking"
	toolAnswerQuestion    = "answer_question"
)

// EffectDispatcher runs the side effects of a committed reservation transition.
type EffectDispatcher interface {
	OnCreated(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation)
	OnUpdated(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation)
	OnCancelled(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation)
}

// Service dispatches normalized voice events to the lifecycle engine, the
// availability oracle and the knowledge answerer.
type Service struct {
	resolver     *tenants.Resolver
	reservations *ressvc.Service
	availability *availability.Service
	knowledge    knowledge.Service
	effects      EffectDispatcher
	eventBus     events.Bus
	log          *logger.Logger
}

// NewService creates the voice dispatch service.
func NewService(resolver *tenants.Resolver, reservations *ressvc.Service, avail *availability.Service, know knowledge.Service, effects EffectDispatcher, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		resolver:     resolver,
		reservations: reservations,
		availability: avail,
		knowledge:    know,
		effects:      effects,
		eventBus:     eventBus,
		log:          log,
	}
}

// HandleCallStarted records an in-progress call. Resolution misses are logged
// and dropped: the channel still gets its acknowledgement.
func (s *Service) HandleCallStarted(ctx context.Context, ev NormalizedEvent) {
	tenant, err := s.resolver.Resolve(ctx, ev.Keys)
	if err != nil {
		s.log.Info("no tenant matches voice event", "event_type", ev.RawType)
		return
	}
	s.log.ChannelEvent("voice", ev.RawType, tenant.ID.String())
	if err := s.reservations.RecordCallStart(ctx, tenant.ID, ev.CallID, ev.CallerNumber); err != nil {
		s.log.Error("failed to record call start", "call_id", ev.CallID, "error", err)
	}
}

// HandleCallEnded completes the call log and announces the ended call on the
// event bus for recording archival and any other listeners.
func (s *Service) HandleCallEnded(ctx context.Context, ev NormalizedEvent) {
	tenant, err := s.resolver.Resolve(ctx, ev.Keys)
	if err != nil {
		s.log.Info("no tenant matches voice event", "event_type", ev.RawType)
		return
	}
	s.log.ChannelEvent("voice", ev.RawType, tenant.ID.String())
	if err := s.reservations.RecordCallEnd(ctx, tenant.ID, ev.CallID, ev.DurationSeconds, ev.Transcript, ev.RecordingURL); err != nil {
		s.log.Error("failed to record call end", "call_id", ev.CallID, "error", err)
		return
	}
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CallEnded{
			BaseEvent:    events.NewBaseEvent(),
			TenantID:     tenant.ID,
			CallID:       ev.CallID,
			CallerNumber: ev.CallerNumber,
			Duration:     ev.DurationSeconds,
			RecordingURL: ev.RecordingURL,
		})
	}
}

// ToolResult is one per-invocation outcome inside a batch response.
type ToolResult struct {
	ToolCallID string `json:"toolCallId,omitempty"`
	Name       string `json:"name,omitempty"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HandleToolCalls executes every invocation in the batch sequentially and
// independently: a malformed or failing call yields its own error result
// without touching its siblings.
func (s *Service) HandleToolCalls(ctx context.Context, ev NormalizedEvent) []ToolResult {
	tenant, err := s.resolver.Resolve(ctx, ev.Keys)
	if err != nil {
		s.log.Info("no tenant matches voice event", "event_type", ev.RawType)
		results := make([]ToolResult, len(ev.ToolCalls))
		for i, inv := range ev.ToolCalls {
			results[i] = ToolResult{
				ToolCallID: inv.ID,
				Name:       inv.FunctionName,
				Error:      "restaurant not found for this call",
			}
		}
		return results
	}

	results := make([]ToolResult, len(ev.ToolCalls))
	for i, inv := range ev.ToolCalls {
		results[i] = s.executeTool(ctx, tenant, inv)
	}
	return results
}

// HandleFunctionCall serves the legacy single-call path: assistant-id
// resolution only, bare result object.
func (s *Service) HandleFunctionCall(ctx context.Context, ev NormalizedEvent) ToolResult {
	if ev.FunctionCall == nil {
		return ToolResult{Error: "missing function call"}
	}
	tenant, err := s.resolver.ResolveByAssistantID(ctx, ev.Keys.AssistantID)
	if err != nil {
		s.log.Info("no tenant matches voice event", "event_type", ev.RawType)
		return ToolResult{Name: ev.FunctionCall.FunctionName, Error: "restaurant not found for this call"}
	}
	return s.executeTool(ctx, tenant, *ev.FunctionCall)
}

func (s *Service) executeTool(ctx context.Context, tenant *tenants.Tenant, inv ToolInvocation) ToolResult {
	result := ToolResult{ToolCallID: inv.ID, Name: inv.FunctionName}
	if inv.ArgsErr != nil {
		result.Error = "invalid tool arguments"
		s.log.ToolCall(inv.FunctionName, inv.ID, tenant.ID.String(), false)
		return result
	}

	var err error
	switch inv.FunctionName {
	case toolCheckAvailability:
		result.Result = s.checkAvailability(ctx, tenant, inv.Arguments)
	case toolCreateBooking:
		result.Result, err = s.createBooking(ctx, tenant, inv.Arguments)
	case toolUpdateBooking:
		result.Result, err = s.updateBooking(ctx, tenant, inv.Arguments)
	case toolCancelBooking:
		result.Result, err = s.cancelBooking(ctx, tenant, inv.Arguments)
	case toolAnswerQuestion:
		result.Result, err = s.answerQuestion(ctx, tenant, inv.Arguments)
	default:
		err = apperr.Validation(fmt.Sprintf("unknown tool %q", inv.FunctionName))
	}

	if err != nil {
		result.Result = nil
		result.Error = guestFacingMessage(err)
	}
	s.log.ToolCall(inv.FunctionName, inv.ID, tenant.ID.String(), err == nil)
	return result
}

func (s *Service) checkAvailability(ctx context.Context, tenant *tenants.Tenant, args map[string]any) availability.Decision {
	return s.availability.Check(ctx, tenant,
		stringArg(args, "date"),
		stringArg(args, "time"),
		intArg(args, "partySize", "party_size", "guests"))
}

func (s *Service) createBooking(ctx context.Context, tenant *tenants.Tenant, args map[string]any) (any, error) {
	created, err := s.reservations.Create(ctx, tenant, ressvc.CreateInput{
		Guest: ressvc.Guest{
			Name:  stringArg(args, "name", "guestName", "customerName"),
			Email: stringArg(args, "email", "guestEmail"),
			Phone: stringArg(args, "phone", "guestPhone"),
		},
		Date:            stringArg(args, "date"),
		Time:            stringArg(args, "time"),
		PartySize:       intArg(args, "partySize", "party_size", "guests"),
		SpecialRequests: stringArg(args, "specialRequests", "special_requests", "notes"),
		Source:          repository.SourcePhone,
	})
	if err != nil {
		return nil, err
	}

	s.effects.OnCreated(ctx, tenant, created)
	return map[string]any{
		"success":          true,
		"confirmationCode": created.ConfirmationCode,
		"message": fmt.Sprintf("Booked for %d on %s at %s. The confirmation code is %s.",
			created.PartySize, created.Date, created.Time, created.ConfirmationCode),
	}, nil
}

func (s *Service) updateBooking(ctx context.Context, tenant *tenants.Tenant, args map[string]any) (any, error) {
	code := stringArg(args, "confirmationCode", "confirmation_code", "code")

	updated, err := s.reservations.Update(ctx, tenant, code, ressvc.UpdateInput{
		GuestName:       optionalArg(args, "name", "guestName"),
		GuestEmail:      optionalArg(args, "email", "guestEmail"),
		GuestPhone:      optionalArg(args, "phone", "guestPhone"),
		Date:            optionalArg(args, "date"),
		Time:            optionalArg(args, "time"),
		PartySize:       optionalIntArg(args, "partySize", "party_size", "guests"),
		SpecialRequests: optionalArg(args, "specialRequests", "special_requests", "notes"),
	}, lookupScope(args))
	if err != nil {
		return nil, err
	}

	s.effects.OnUpdated(ctx, tenant, updated)
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Updated. The reservation is now for %d on %s at %s.",
			updated.PartySize, updated.Date, updated.Time),
	}, nil
}

func (s *Service) cancelBooking(ctx context.Context, tenant *tenants.Tenant, args map[string]any) (any, error) {
	code := stringArg(args, "confirmationCode", "confirmation_code", "code")

	cancelled, err := s.reservations.Cancel(ctx, tenant, code, lookupScope(args))
	if err != nil {
		return nil, err
	}

	s.effects.OnCancelled(ctx, tenant, cancelled)
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("The reservation %s has been cancelled.", cancelled.ConfirmationCode),
	}, nil
}

func (s *Service) answerQuestion(ctx context.Context, tenant *tenants.Tenant, args map[string]any) (any, error) {
	answer, err := s.knowledge.AnswerQuestion(ctx, knowledge.TenantProfile{
		Name:         tenant.Name,
		Capacity:     tenant.Capacity,
		MaxPartySize: tenant.MaxPartySize,
	}, stringArg(args, "question", "query"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"answer": answer}, nil
}

// lookupScope implements the fallback opt-out: an explicit id in the payload
// marks the caller as unambiguous, so the cross-tenant global lookup is
// disabled to prevent accidental overwrites.
func lookupScope(args map[string]any) ressvc.LookupScope {
	if _, present := args["id"]; present {
		return ressvc.ScopedOnly
	}
	return ressvc.ScopedThenGlobal
}

func guestFacingMessage(err error) string {
	if appErr, ok := err.(*apperr.Error); ok {
		switch appErr.Kind {
		case apperr.KindNotFound:
			return "I couldn't find that reservation."
		case apperr.KindValidation, apperr.KindBadRequest, apperr.KindConflict:
			return appErr.Message
		}
	}
	return "Something went wrong on our side. Please try again."
}

func stringArg(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func optionalArg(args map[string]any, keys ...string) *string {
	if v := stringArg(args, keys...); v != "" {
		return &v
	}
	return nil
}

// intArg reads a number that may arrive as a JSON number or a spoken string.
func intArg(args map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := args[key].(type) {
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func optionalIntArg(args map[string]any, keys ...string) *int {
	if n := intArg(args, keys...); n != 0 {
		return &n
	}
	return nil
}
