package http

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/circles/domain"
)

// CircleService is the subset of service.CircleService the handlers call.
type CircleService interface {
	GenerateInviteCode(ctx context.Context, circleName, leaderEmail string) (*domain.InviteCode, error)
	RegenerateInviteCode(ctx context.Context, circleID, callerEmail string) (*domain.InviteCode, error)
	JoinCircle(ctx context.Context, code, joinerEmail string) (string, error)
	ListCirclesForUser(ctx context.Context, email string) ([]domain.Circle, error)
	ListMembers(ctx context.Context, circleID, callerEmail string) ([]domain.Member, error)
	LeaveCircle(ctx context.Context, circleID, email string) error
}

type Handler struct {
	svc CircleService
	log *zap.Logger
}

func New(svc CircleService, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type generateInviteReq struct {
	CircleName string `json:"circleName"`
}

type inviteResp struct {
	Code      string    `json:"code"`
	CircleID  string    `json:"circleId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type joinCircleReq struct {
	InviteCode string `json:"inviteCode"`
}

type leaveCircleReq struct {
	CircleID string `json:"circleId"`
}

type circleResp struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type memberResp struct {
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	PushToken *string `json:"pushToken"`
}
