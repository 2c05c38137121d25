package voice

import (
	"crypto/subtle"
	"net/http"

	"github.com/emmanuel582/backendtablenow/platform/config"

	"github.com/gin-gonic/gin"
)

// SecretMiddleware validates the X-Webhook-Secret header against the
// configured shared secret. An empty configured secret disables the check,
// which keeps local development friction-free.
func SecretMiddleware(cfg config.VoiceConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := cfg.GetVoiceWebhookSecret()
		if secret == "" {
			c.Next()
			return
		}

		supplied := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
		c.Next()
	}
}
