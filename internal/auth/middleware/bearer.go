package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Perismakworo/Shesecure2/internal/auth"
)

// RequireBearer resolves the Authorization bearer credential to a caller
// email. A missing token is 401, a token that fails verification is 403.
func RequireBearer(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		c.Set(auth.CtxCallerEmail, id.Email)
		if id.Name != "" {
			c.Set(auth.CtxCallerName, id.Name)
		}
		if id.PhotoURL != "" {
			c.Set(auth.CtxCallerPhoto, id.PhotoURL)
		}

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
