package http

import (
	"context"

	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/locations/domain"
)

type LocationService interface {
	UpdateLocation(ctx context.Context, email string, lat, lon float64) (domain.Sample, error)
	CircleLocations(ctx context.Context, email string) ([]domain.CircleLocation, error)
	History(ctx context.Context, requester, target string, limit int) ([]domain.HistoryPoint, error)
}

type Handler struct {
	svc LocationService
	log *zap.Logger
}

func New(svc LocationService, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Coordinates are pointers so a missing field is distinguishable from 0.
type updateLocationReq struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type historyQuery struct {
	MemberEmail string `form:"memberEmail"`
	Limit       int    `form:"limit"`
}
