package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exsim-backend/internal/response"
)

const (
	// ContextKeyOwner is the Gin context key for the session owner identifier.
	ContextKeyOwner = response.ContextKeyOwner

	// HeaderOwnerID carries the owner identifier on regular API requests.
	HeaderOwnerID = "X-User-ID"

	maxOwnerIDLength = 128
)

// RequireOwner resolves the owner from the X-User-ID header.
// Identity is asserted by an upstream gateway; this service does not authenticate.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := normalizeOwner(c.GetHeader(HeaderOwnerID))
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrOwnerRequired)
			return
		}

		c.Set(ContextKeyOwner, owner)
		c.Next()
	}
}

// RequireOwnerWS resolves the owner from the ?user_id= query parameter.
// Browsers cannot attach custom headers to WebSocket upgrade requests.
func RequireOwnerWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("user_id")
		if raw == "" {
			raw = c.GetHeader(HeaderOwnerID)
		}

		owner, ok := normalizeOwner(raw)
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrOwnerRequired)
			return
		}

		c.Set(ContextKeyOwner, owner)
		c.Next()
	}
}

// GetOwnerID retrieves the owner identifier from the Gin context.
func GetOwnerID(c *gin.Context) string {
	val, exists := c.Get(ContextKeyOwner)
	if !exists {
		return ""
	}
	owner, _ := val.(string)
	return owner
}

func normalizeOwner(raw string) (string, bool) {
	owner := strings.TrimSpace(raw)
	if owner == "" || len(owner) > maxOwnerIDLength {
		return "", false
	}
	for _, r := range owner {
		// Owners end up inside Redis keys and channel names.
		if r < 0x21 || r > 0x7e {
			return "", false
		}
	}
	return owner, true
}
