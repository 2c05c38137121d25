package inboundemail

import (
	"net/http"

	"github.com/emmanuel582/backendtablenow/platform/httpkit"
	"github.com/emmanuel582/backendtablenow/platform/logger"
	"github.com/emmanuel582/backendtablenow/platform/validator"

	"github.com/gin-gonic/gin"
)

// EmailWebhookRequest is the payload delivered by the mail-forwarding hook.
type EmailWebhookRequest struct {
	To      string `json:"to" validate:"required"`
	From    string `json:"from" validate:"omitempty"`
	Subject string `json:"subject" validate:"omitempty"`
	Body    string `json:"body" validate:"required"`
}

// Handler terminates the inbound email webhook. Unlike the voice channel this
// one rejects: a malformed recipient address means the booking can never be
// attributed to a tenant, and the sender should know.
type Handler struct {
	svc *Service
	val *validator.Validator
	log *logger.Logger
}

// NewHandler creates a new inbound email handler.
func NewHandler(svc *Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// HandleWebhook processes one forwarded email.
// POST /api/v1/webhooks/email
func (h *Handler) HandleWebhook(c *gin.Context) {
	var req EmailWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	created, err := h.svc.HandleEmail(c.Request.Context(), ParsedEmailEvent{
		To:      req.To,
		From:    req.From,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"received":         true,
		"confirmationCode": created.ConfirmationCode,
	})
}
