// Package reservations provides the reservation lifecycle domain module.
package reservations

import (
	apphttp "github.com/emmanuel582/backendtablenow/internal/http"
	"github.com/emmanuel582/backendtablenow/internal/reservations/handler"
	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	"github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/events"
	"github.com/emmanuel582/backendtablenow/platform/logger"
	"github.com/emmanuel582/backendtablenow/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the reservations domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new reservations module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, tenantRepo *tenants.Repository, effects handler.EffectDispatcher, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, repo, log)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val, tenantRepo, effects)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "reservations"
}

// SetEffects wires the side-effect dispatcher. Built on this module's
// repository, so it cannot exist before the module does.
func (m *Module) SetEffects(effects handler.EffectDispatcher) {
	m.handler.SetEffects(effects)
}

// Service returns the lifecycle engine for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the reservation store for other modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	reservations := ctx.Protected.Group("/reservations")
	m.handler.RegisterRoutes(reservations)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
