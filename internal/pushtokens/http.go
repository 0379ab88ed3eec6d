package pushtokens

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/api/http/respond"
	"github.com/Perismakworo/Shesecure2/internal/apperr"
	"github.com/Perismakworo/Shesecure2/internal/auth"
	"github.com/Perismakworo/Shesecure2/internal/notify/push"
)

var (
	ErrTokenEmpty   = apperr.Validation("pushtokens.save", "token is required")
	ErrTokenInvalid = apperr.Validation("pushtokens.save", "token is not an FCM registration token")
)

type Saver interface {
	Save(ctx context.Context, email, token string) error
}

type Handler struct {
	repo Saver
	log  *zap.Logger
}

func Register(rg *gin.RouterGroup, repo Saver, log *zap.Logger) {
	h := &Handler{repo: repo, log: log}

	rg.POST("/savePushToken", h.save)
}

type saveReq struct {
	Token string `json:"token"`
}

func (h *Handler) save(c *gin.Context) {
	var req saveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		respond.Error(c, h.log, ErrTokenEmpty)
		return
	}
	if !push.ValidToken(token) {
		respond.Error(c, h.log, ErrTokenInvalid)
		return
	}

	if err := h.repo.Save(c.Request.Context(), auth.CallerEmail(c), token); err != nil {
		respond.Error(c, h.log, apperr.Internal("pushtokens.save", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push token saved successfully"})
}
