package inboundemail

import (
	"context"

	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	ressvc "github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

// TenantStore loads tenants by primary key.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenants.Tenant, error)
}

// EffectDispatcher runs post-commit side effects for bookings created from
// this channel.
type EffectDispatcher interface {
	OnCreated(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation)
}

// ParsedEmailEvent is one inbound message, already decoded from the wire
// (webhook payload or IMAP fetch).
type ParsedEmailEvent struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Service turns widget notification emails into reservations.
type Service struct {
	tenantStore  TenantStore
	reservations *ressvc.Service
	effects      EffectDispatcher
	log          *logger.Logger
}

// NewService creates a new inbound email service.
func NewService(tenantStore TenantStore, reservations *ressvc.Service, effects EffectDispatcher, log *logger.Logger) *Service {
	return &Service{
		tenantStore:  tenantStore,
		reservations: reservations,
		effects:      effects,
		log:          log,
	}
}

// HandleEmail ingests one notification email. The recipient address carries
// the tenant id; an address that does not is rejected. Bodies missing the
// core booking fields are rejected too, so the sender's retry can surface
// the problem instead of silently dropping a booking.
func (s *Service) HandleEmail(ctx context.Context, ev ParsedEmailEvent) (*repository.Reservation, error) {
	tenantID, err := ExtractTenantID(ev.To)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantStore.GetByID(ctx, tenantID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.BadRequest("recipient address names an unknown tenant")
		}
		return nil, err
	}

	fields := ExtractBookingFields(ev.Body)
	if fields.GuestName == "" || fields.Date == "" || fields.Time == "" || fields.PartySize <= 0 {
		return nil, apperr.Validation("email body is missing booking fields")
	}

	s.log.ChannelEvent("email", "booking", tenant.ID.String())

	created, err := s.reservations.Create(ctx, tenant, ressvc.CreateInput{
		Guest: ressvc.Guest{
			Name:  fields.GuestName,
			Email: fields.GuestEmail,
			Phone: fields.GuestPhone,
		},
		Date:            fields.Date,
		Time:            fields.Time,
		PartySize:       fields.PartySize,
		SpecialRequests: fields.SpecialRequests,
		Source:          repository.SourceEmail,
	})
	if err != nil {
		return nil, err
	}

	if s.effects != nil {
		s.effects.OnCreated(ctx, tenant, created)
	}
	return created, nil
}
