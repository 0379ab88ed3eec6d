package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/logging"
	"github.com/Perismakworo/Shesecure2/internal/users"
)

// UserEnsurer records the caller in the users table.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) error
}

// WithUser makes sure the authenticated caller has a users row so that
// names and photos resolve in circle listings. It must run after RequireBearer.
func WithUser(repo UserEnsurer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := CallerEmail(c)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		err := repo.EnsureUser(c.Request.Context(), users.UpsertUser{
			Email:       email,
			DisplayName: c.GetString(CtxCallerName),
			PhotoURL:    c.GetString(CtxCallerPhoto),
		})
		if err != nil {
			logging.FromContext(c.Request.Context(), log).Error("ensure user", zap.String("email", email), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			c.Abort()
			return
		}

		c.Next()
	}
}
