package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/pkg/jwt"
)

const ctxExternalUserID = "externalUserID"

// BearerAuth verifies the identity provider token and stores its subject in the context.
// Requests without a valid token stop here, before any handler or database work.
func BearerAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized", err)
			}
			c.Abort()
			return
		}

		c.Set(ctxExternalUserID, claims.ExternalUserID())
		c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to ?token= for WebSocket upgrades
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if c.IsWebsocket() {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// GetExternalUserID extracts the identity provider subject from context
func GetExternalUserID(c *gin.Context) string {
	return c.GetString(ctxExternalUserID)
}
