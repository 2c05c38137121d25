package voice

import (
	"github.com/emmanuel582/backendtablenow/internal/availability"
	"github.com/emmanuel582/backendtablenow/internal/events"
	apphttp "github.com/emmanuel582/backendtablenow/internal/http"
	"github.com/emmanuel582/backendtablenow/internal/knowledge"
	ressvc "github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/logger"
)

// Module represents the voice webhook channel module.
type Module struct {
	handler *Handler
	cfg     config.VoiceConfig
}

// NewModule creates a new voice module with all dependencies wired.
func NewModule(cfg config.VoiceConfig, resolver *tenants.Resolver, reservations *ressvc.Service, avail *availability.Service, know knowledge.Service, effects EffectDispatcher, eventBus events.Bus, log *logger.Logger) *Module {
	svc := NewService(resolver, reservations, avail, know, effects, eventBus, log)
	return &Module{
		handler: NewHandler(svc, log),
		cfg:     cfg,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "voice"
}

// RegisterRoutes registers the webhook route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhook.POST("/voice", SecretMiddleware(m.cfg), m.handler.HandleWebhook)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
