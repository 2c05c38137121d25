package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/emmanuel582/backendtablenow/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendGuestConfirmation(ctx context.Context, toEmail string, details ReservationDetails, attachments ...Attachment) error {
	content, err := renderEmailTemplate("guest_confirmation.html", reservationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Reservation confirmed",
			Heading: "Your table is booked",
		},
		ReservationDetails: details,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectGuestConfirmationFmt, details.RestaurantName)
	return s.send(ctx, toEmail, subject, content, attachments...)
}

func (s *SMTPSender) SendGuestUpdate(ctx context.Context, toEmail string, details ReservationDetails) error {
	content, err := renderEmailTemplate("guest_update.html", reservationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Reservation updated",
			Heading: "Your reservation has changed",
		},
		ReservationDetails: details,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectGuestUpdateFmt, details.RestaurantName)
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendGuestCancellation(ctx context.Context, toEmail string, details ReservationDetails) error {
	content, err := renderEmailTemplate("guest_cancellation.html", reservationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Reservation cancelled",
			Heading: "Your reservation is cancelled",
		},
		ReservationDetails: details,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectGuestCancellationFmt, details.RestaurantName)
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendGuestReminder(ctx context.Context, toEmail string, details ReservationDetails) error {
	content, err := renderEmailTemplate("guest_reminder.html", reservationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Reservation reminder",
			Heading: "See you soon",
		},
		ReservationDetails: details,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectGuestReminderFmt, details.RestaurantName)
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendTenantNotification(ctx context.Context, toEmail, headline string, details ReservationDetails) error {
	content, err := renderEmailTemplate("tenant_notification.html", tenantNotificationEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectTenantNotification,
			Heading: headline,
		},
		Headline:           headline,
		ReservationDetails: details,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectTenantNotification, content)
}

var _ Sender = (*SMTPSender)(nil)
