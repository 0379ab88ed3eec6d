package respond

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/apperr"
	"github.com/Perismakworo/Shesecure2/internal/logging"
)

// Error writes err as {"error": msg} with the status its kind maps to.
// Internal failures are logged and replaced with a generic message.
func Error(c *gin.Context, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		logging.FromContext(c.Request.Context(), log).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// BadRequest is shorthand for a binding failure.
func BadRequest(c *gin.Context, msg string) {
	Error(c, nil, apperr.Validation("bind", msg))
}
