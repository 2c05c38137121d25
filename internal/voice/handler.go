package voice

import (
	"io"
	"net/http"

	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler terminates the voice webhook. Whatever happens inside, the channel
// always receives HTTP 200: the platform retries on non-2xx, and a retry of a
// failed booking is worse than an in-band error message.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler creates a new voice webhook handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// HandleWebhook processes one webhook delivery.
// POST /api/v1/webhooks/voice
func (h *Handler) HandleWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error("failed to read voice webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ev := Normalize(raw)
	ctx := c.Request.Context()

	switch ev.Kind {
	case EventCallStarted:
		h.svc.HandleCallStarted(ctx, ev)
		c.JSON(http.StatusOK, gin.H{"received": true})
	case EventCallEnded:
		h.svc.HandleCallEnded(ctx, ev)
		c.JSON(http.StatusOK, gin.H{"received": true})
	case EventToolCalls:
		results := h.svc.HandleToolCalls(ctx, ev)
		c.JSON(http.StatusOK, FormatBatchResponse(results))
	case EventFunctionCall:
		c.JSON(http.StatusOK, h.svc.HandleFunctionCall(ctx, ev))
	default:
		h.log.Info("ignoring unrecognized voice event", "event_type", ev.RawType)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
