package inboundemail

import (
	"context"

	apphttp "github.com/emmanuel582/backendtablenow/internal/http"
	ressvc "github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/logger"
	"github.com/emmanuel582/backendtablenow/platform/validator"
)

// Module represents the inbound email channel: the forwarding webhook plus
// the optional IMAP mailbox poller.
type Module struct {
	handler *Handler
	poller  *Poller
	cfg     config.InboundEmailConfig
	log     *logger.Logger
}

// NewModule creates a new inbound email module with all dependencies wired.
func NewModule(cfg config.InboundEmailConfig, tenantStore TenantStore, reservations *ressvc.Service, effects EffectDispatcher, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(tenantStore, reservations, effects, log)
	return &Module{
		handler: NewHandler(svc, val, log),
		poller:  NewPoller(cfg, svc, log),
		cfg:     cfg,
		log:     log,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "inboundemail"
}

// RegisterRoutes registers the webhook route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhook.POST("/email", m.handler.HandleWebhook)
}

// StartPoller launches the mailbox poller when IMAP is configured. Returns
// immediately; the poller runs until ctx is cancelled.
func (m *Module) StartPoller(ctx context.Context) {
	if !m.cfg.IsIMAPEnabled() {
		m.log.Info("inbound email poller disabled, no IMAP mailbox configured")
		return
	}
	go m.poller.Run(ctx)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
