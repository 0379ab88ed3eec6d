package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxCallerEmail = "caller_email"
	CtxCallerName  = "caller_name"
	CtxCallerPhoto = "caller_photo"
)

// CallerEmail extracts the authenticated caller's email from the Gin context.
// It is set by middleware.RequireBearer.
func CallerEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxCallerEmail))
}
