package inboundemail

import (
	"context"
	"time"

	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	imap "github.com/BrianLeishman/go-imap"
)

// Poller watches the booking mailbox over IMAP and feeds every unseen message
// into the inbound email service. Some widgets cannot call webhooks at all and
// only send mail, so polling is the fallback ingestion path.
type Poller struct {
	cfg      config.InboundEmailConfig
	svc      *Service
	log      *logger.Logger
	interval time.Duration
}

// NewPoller creates a new mailbox poller.
func NewPoller(cfg config.InboundEmailConfig, svc *Service, log *logger.Logger) *Poller {
	interval := cfg.GetIMAPPollInterval()
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Poller{cfg: cfg, svc: svc, log: log, interval: interval}
}

// Run polls until the context is cancelled. Each cycle opens a fresh
// connection; IMAP servers drop idle sessions aggressively and a reconnect
// per cycle is cheaper than keepalive bookkeeping.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("inbound email poller started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.pollOnce(ctx); err != nil {
			p.log.Error("mailbox poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			p.log.Info("inbound email poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	dialer, err := imap.New(p.cfg.GetIMAPUsername(), p.cfg.GetIMAPPassword(), p.cfg.GetIMAPHost(), p.cfg.GetIMAPPort())
	if err != nil {
		return err
	}
	defer func() {
		_ = dialer.Close()
	}()

	if err := dialer.SelectFolder("INBOX"); err != nil {
		return err
	}

	uids, err := dialer.GetUIDs("UNSEEN")
	if err != nil {
		return err
	}
	if len(uids) == 0 {
		return nil
	}

	emails, err := dialer.GetEmails(uids...)
	if err != nil {
		return err
	}

	for _, msg := range emails {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.ingest(ctx, msg)
	}
	return nil
}

// ingest hands one fetched message to the service. Failures are logged and
// swallowed: the fetch already marked the message seen, and a bad message
// must not block the rest of the batch.
func (p *Poller) ingest(ctx context.Context, msg *imap.Email) {
	ev := ParsedEmailEvent{
		To:      firstAddress(msg.To),
		From:    firstAddress(msg.From),
		Subject: msg.Subject,
		Body:    msg.Text,
	}
	if _, err := p.svc.HandleEmail(ctx, ev); err != nil {
		p.log.Error("inbound email rejected",
			"from", ev.From,
			"subject", ev.Subject,
			"error", err,
		)
	}
}

func firstAddress(addresses imap.EmailAddresses) string {
	for address := range addresses {
		return address
	}
	return ""
}
