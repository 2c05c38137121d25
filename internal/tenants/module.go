package tenants

import (
	apphttp "github.com/emmanuel582/backendtablenow/internal/http"
	"github.com/emmanuel582/backendtablenow/platform/logger"
	"github.com/emmanuel582/backendtablenow/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module bundles the tenant repository, the channel-key resolver and the
// onboarding HTTP surface.
type Module struct {
	repo     *Repository
	resolver *Resolver
	handler  *Handler
}

// NewModule creates a new tenants module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{
		repo:     repo,
		resolver: NewResolver(repo, log),
		handler:  NewHandler(repo, val, log),
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "tenants"
}

// Repository exposes the tenant store to sibling modules.
func (m *Module) Repository() *Repository {
	return m.repo
}

// Resolver exposes the channel-key resolver to the ingestion modules.
func (m *Module) Resolver() *Resolver {
	return m.resolver
}

// RegisterRoutes registers the onboarding routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/tenants")
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id/provisioning", m.handler.UpdateProvisioning)
	group.PUT("/:id/calendar-credential", m.handler.UpdateCalendarCredential)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
