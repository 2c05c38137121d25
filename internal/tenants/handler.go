package tenants

import (
	"net/http"

	"github.com/emmanuel582/backendtablenow/platform/httpkit"
	"github.com/emmanuel582/backendtablenow/platform/logger"
	"github.com/emmanuel582/backendtablenow/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateTenantRequest is the onboarding payload for a new restaurant account.
type CreateTenantRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Capacity     int    `json:"capacity" validate:"omitempty,min=1"`
	MaxPartySize int    `json:"maxPartySize" validate:"omitempty,min=1"`
	CRMEnabled   bool   `json:"crmEnabled"`
}

// ProvisioningRequest records the voice-platform identifiers after the
// assistant and phone number have been provisioned upstream.
type ProvisioningRequest struct {
	PhoneNumberID string `json:"phoneNumberId" validate:"required"`
	PhoneNumber   string `json:"phoneNumber" validate:"required"`
	AssistantID   string `json:"assistantId" validate:"required"`
}

// CalendarCredentialRequest stores the opaque per-tenant calendar credential.
// An empty credential disconnects the calendar.
type CalendarCredentialRequest struct {
	Credential string `json:"credential"`
}

// TenantResponse is the API view of a tenant. Credentials never leave the
// server; only their presence is reported.
type TenantResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Capacity          int       `json:"capacity"`
	MaxPartySize      int       `json:"maxPartySize"`
	PhoneNumberID     *string   `json:"phoneNumberId,omitempty"`
	PhoneNumber       *string   `json:"phoneNumber,omitempty"`
	AssistantID       *string   `json:"assistantId,omitempty"`
	CalendarConnected bool      `json:"calendarConnected"`
	CRMEnabled        bool      `json:"crmEnabled"`
}

func toTenantResponse(t *Tenant) TenantResponse {
	return TenantResponse{
		ID:                t.ID,
		Name:              t.Name,
		Email:             t.Email,
		Capacity:          t.Capacity,
		MaxPartySize:      t.MaxPartySize,
		PhoneNumberID:     t.PhoneNumberID,
		PhoneNumber:       t.PhoneNumber,
		AssistantID:       t.AssistantID,
		CalendarConnected: len(t.CalendarCredential) > 0,
		CRMEnabled:        t.CRMEnabled,
	}
}

// Handler exposes tenant onboarding over HTTP.
type Handler struct {
	repo *Repository
	val  *validator.Validator
	log  *logger.Logger
}

// NewHandler creates a new tenant handler.
func NewHandler(repo *Repository, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{repo: repo, val: val, log: log}
}

// Create registers a new restaurant account.
// POST /api/v1/tenants
func (h *Handler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	created, err := h.repo.Create(c.Request.Context(), Tenant{
		Name:         req.Name,
		Email:        req.Email,
		Capacity:     req.Capacity,
		MaxPartySize: req.MaxPartySize,
		CRMEnabled:   req.CRMEnabled,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	h.log.Info("tenant created", "tenant_id", created.ID.String(), "name", created.Name)
	httpkit.JSON(c, http.StatusCreated, toTenantResponse(created))
}

// Get returns one tenant.
// GET /api/v1/tenants/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	tenant, err := h.repo.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTenantResponse(tenant))
}

// UpdateProvisioning records the voice-platform identifiers.
// PATCH /api/v1/tenants/:id/provisioning
func (h *Handler) UpdateProvisioning(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req ProvisioningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.UpdateProvisioning(ctx, id, req.PhoneNumberID, req.PhoneNumber, req.AssistantID); httpkit.HandleError(c, err) {
		return
	}

	tenant, err := h.repo.GetByID(ctx, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTenantResponse(tenant))
}

// UpdateCalendarCredential stores or clears the calendar credential blob.
// PUT /api/v1/tenants/:id/calendar-credential
func (h *Handler) UpdateCalendarCredential(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req CalendarCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var credential []byte
	if req.Credential != "" {
		credential = []byte(req.Credential)
	}
	if err := h.repo.UpdateCalendarCredential(c.Request.Context(), id, credential); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"connected": credential != nil})
}

func (h *Handler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid tenant id", nil)
		return uuid.Nil, false
	}
	return id, true
}
