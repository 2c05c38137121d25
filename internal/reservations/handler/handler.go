// Package handler exposes the dashboard API for reservations and call logs.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	"github.com/emmanuel582/backendtablenow/internal/reservations/service"
	"github.com/emmanuel582/backendtablenow/internal/reservations/transport"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/httpkit"
	"github.com/emmanuel582/backendtablenow/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// TenantLoader fetches the tenant record behind the authenticated dashboard user.
type TenantLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenants.Tenant, error)
}

// EffectDispatcher runs the side effects of a committed reservation transition.
type EffectDispatcher interface {
	OnCreated(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation)
	OnUpdated(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation)
	OnCancelled(ctx context.Context, tenant *tenants.Tenant, res *repository.Reservation)
}

// Handler handles HTTP requests for reservations.
type Handler struct {
	svc     *service.Service
	val     *validator.Validator
	loader  TenantLoader
	effects EffectDispatcher
}

// New creates a new reservations handler.
func New(svc *service.Service, val *validator.Validator, loader TenantLoader, effects EffectDispatcher) *Handler {
	return &Handler{svc: svc, val: val, loader: loader, effects: effects}
}

// SetEffects wires the side-effect dispatcher. The dispatcher is built on top
// of this module's repository, so it arrives after construction.
func (h *Handler) SetEffects(effects EffectDispatcher) {
	h.effects = effects
}

// RegisterRoutes registers the reservation routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/calls", h.ListCalls)
	rg.GET("/:code", h.GetByCode)
	rg.PATCH("/:code", h.Update)
	rg.DELETE("/:code", h.Cancel)
}

func (h *Handler) loadTenant(c *gin.Context) (*tenants.Tenant, bool) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	tenant, err := h.loader.GetByID(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return nil, false
	}
	return tenant, true
}

func (h *Handler) List(c *gin.Context) {
	tenant, ok := h.loadTenant(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.svc.List(c.Request.Context(), tenant.ID, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"reservations": transport.ToReservationResponses(list)})
}

func (h *Handler) GetByCode(c *gin.Context) {
	tenant, ok := h.loadTenant(c)
	if !ok {
		return
	}

	res, err := h.svc.Get(c.Request.Context(), tenant, c.Param("code"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToReservationResponse(res))
}

func (h *Handler) Create(c *gin.Context) {
	tenant, ok := h.loadTenant(c)
	if !ok {
		return
	}

	var req transport.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	created, err := h.svc.Create(c.Request.Context(), tenant, service.CreateInput{
		Guest: service.Guest{
			Name:  req.GuestName,
			Email: req.GuestEmail,
			Phone: req.GuestPhone,
		},
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
		Source:          repository.SourceManual,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	if h.effects != nil {
		h.effects.OnCreated(c.Request.Context(), tenant, created)
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToReservationResponse(created))
}

func (h *Handler) Update(c *gin.Context) {
	tenant, ok := h.loadTenant(c)
	if !ok {
		return
	}

	var req transport.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	// Dashboard users are unambiguous about their tenant, so lookups never
	// fall back to other tenants' reservations.
	updated, err := h.svc.Update(c.Request.Context(), tenant, c.Param("code"), service.UpdateInput{
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	}, service.ScopedOnly)
	if httpkit.HandleError(c, err) {
		return
	}

	if h.effects != nil {
		h.effects.OnUpdated(c.Request.Context(), tenant, updated)
	}
	httpkit.OK(c, transport.ToReservationResponse(updated))
}

func (h *Handler) Cancel(c *gin.Context) {
	tenant, ok := h.loadTenant(c)
	if !ok {
		return
	}

	cancelled, err := h.svc.Cancel(c.Request.Context(), tenant, c.Param("code"), service.ScopedOnly)
	if httpkit.HandleError(c, err) {
		return
	}

	if h.effects != nil {
		h.effects.OnCancelled(c.Request.Context(), tenant, cancelled)
	}
	httpkit.OK(c, transport.ToReservationResponse(cancelled))
}

func (h *Handler) ListCalls(c *gin.Context) {
	tenant, ok := h.loadTenant(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	calls, err := h.svc.ListCalls(c.Request.Context(), tenant.ID, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"calls": transport.ToCallLogResponses(calls)})
}
