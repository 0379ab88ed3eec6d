package http

import (
	"context"

	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/sos/domain"
)

type Engine interface {
	Trigger(ctx context.Context, owner string, lat, lon float64) (*domain.Trigger, error)
	Get(ctx context.Context, id, caller string) (*domain.Dispatch, error)
	List(ctx context.Context, owner string) ([]domain.Summary, error)
}

type Handler struct {
	engine Engine
	log    *zap.Logger
}

func New(engine Engine, log *zap.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

type sendSOSReq struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type sendSOSResp struct {
	Message      string `json:"message"`
	SOSID        string `json:"sosId"`
	AudienceSize int    `json:"audienceSize"`
}
