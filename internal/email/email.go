// Package email renders and delivers guest- and tenant-facing reservation
// notifications over SMTP.
package email

import (
	"context"

	"github.com/emmanuel582/backendtablenow/platform/config"
)

// Attachment is a file attached to an outgoing email.
type Attachment struct {
	FileName string
	Content  []byte
}

// ReservationDetails carries the fields the reservation templates render.
type ReservationDetails struct {
	GuestName        string
	RestaurantName   string
	Date             string
	Time             string
	PartySize        int
	ConfirmationCode string
	SpecialRequests  string
}

// Sender delivers reservation notifications. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendGuestConfirmation(ctx context.Context, toEmail string, details ReservationDetails, attachments ...Attachment) error
	SendGuestUpdate(ctx context.Context, toEmail string, details ReservationDetails) error
	SendGuestCancellation(ctx context.Context, toEmail string, details ReservationDetails) error
	SendGuestReminder(ctx context.Context, toEmail string, details ReservationDetails) error
	SendTenantNotification(ctx context.Context, toEmail, headline string, details ReservationDetails) error
}

// NewSender returns the SMTP sender, or the noop sender when email is not
// configured, so callers keep a uniform call path.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}

// NoopSender discards all email. Used when SMTP is not configured so the
// side-effect coordinator keeps a uniform call path.
type NoopSender struct{}

func (NoopSender) SendGuestConfirmation(context.Context, string, ReservationDetails, ...Attachment) error {
	return nil
}
func (NoopSender) SendGuestUpdate(context.Context, string, ReservationDetails) error       { return nil }
func (NoopSender) SendGuestCancellation(context.Context, string, ReservationDetails) error { return nil }
func (NoopSender) SendGuestReminder(context.Context, string, ReservationDetails) error     { return nil }
func (NoopSender) SendTenantNotification(context.Context, string, string, ReservationDetails) error {
	return nil
}
