package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/apperr"
	"github.com/Perismakworo/Shesecure2/internal/circles/domain"
	"github.com/Perismakworo/Shesecure2/internal/logging"
)

const (
	maxCircleNameLength = 100
	maxInviteAttempts   = 3
)

type CircleStore interface {
	Create(ctx context.Context, c *domain.Circle) error
	GetByID(ctx context.Context, id string) (*domain.Circle, error)
	ListForUser(ctx context.Context, email string) ([]domain.Circle, error)
	ListMembers(ctx context.Context, circleID string) ([]domain.Member, error)
	IsParticipant(ctx context.Context, circleID, email string) (bool, error)
	AddMember(ctx context.Context, circleID, email string) (bool, error)
	RemoveMember(ctx context.Context, circleID, email string) (bool, error)
	Audience(ctx context.Context, email string) (*domain.Audience, error)
}

type InviteStore interface {
	Create(ctx context.Context, inv *domain.InviteCode) error
	FindActive(ctx context.Context, code string, now time.Time) (*domain.InviteCode, error)
}

// TxRunner runs fn inside one all-or-nothing transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CircleService owns the membership store and the invite/join protocol.
type CircleService struct {
	tx        TxRunner
	circles   CircleStore
	invites   InviteStore
	codes     CodeGenerator
	now       func() time.Time
	newID     func() string
	inviteTTL time.Duration
	log       *zap.Logger
}

type Option func(*CircleService)

func WithClock(now func() time.Time) Option {
	return func(s *CircleService) { s.now = now }
}

func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *CircleService) { s.codes = g }
}

func WithIDGenerator(f func() string) Option {
	return func(s *CircleService) { s.newID = f }
}

// NewCircleService creates a new CircleService
func NewCircleService(tx TxRunner, circles CircleStore, invites InviteStore, inviteTTL time.Duration, log *zap.Logger, opts ...Option) *CircleService {
	s := &CircleService{
		tx:        tx,
		circles:   circles,
		invites:   invites,
		codes:     RandomCode,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		inviteTTL: inviteTTL,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCircle inserts a circle led by leaderEmail and returns its id.
func (s *CircleService) CreateCircle(ctx context.Context, name, leaderEmail string) (string, error) {
	name, err := normalizeCircleName(name)
	if err != nil {
		return "", err
	}

	c := &domain.Circle{ID: s.newID(), Name: name, LeaderEmail: leaderEmail, CreatedAt: s.now().UTC()}
	if err := s.circles.Create(ctx, c); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return "", err
		}
		return "", apperr.Internal("circles.create", err)
	}
	return c.ID, nil
}

// GenerateInviteCode creates a circle and its first invite code in one
// transaction. A code collision rolls the attempt back and retries with a
// fresh circle id and code.
func (s *CircleService) GenerateInviteCode(ctx context.Context, circleName, leaderEmail string) (*domain.InviteCode, error) {
	name, err := normalizeCircleName(circleName)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxInviteAttempts; attempt++ {
		var inv *domain.InviteCode
		err := s.tx.InTx(ctx, func(ctx context.Context) error {
			now := s.now().UTC()
			c := &domain.Circle{ID: s.newID(), Name: name, LeaderEmail: leaderEmail, CreatedAt: now}
			if err := s.circles.Create(ctx, c); err != nil {
				return err
			}

			var err error
			inv, err = s.newInvite(c.ID, now)
			if err != nil {
				return err
			}
			return s.invites.Create(ctx, inv)
		})
		if err == nil {
			logging.FromContext(ctx, s.log).Info("circle created",
				zap.String("circle_id", inv.CircleID),
				zap.String("leader", leaderEmail),
				zap.Time("invite_expires_at", inv.ExpiresAt))
			return inv, nil
		}

		lastErr = err
		if !errors.Is(err, domain.ErrInviteCollision) {
			break
		}
		logging.FromContext(ctx, s.log).Warn("invite code collision, retrying", zap.Int("attempt", attempt))
	}

	return nil, apperr.Transaction("circles.generateInviteCode", lastErr)
}

// RegenerateInviteCode issues a fresh code for an existing circle. Only the
// leader may do this.
func (s *CircleService) RegenerateInviteCode(ctx context.Context, circleID, callerEmail string) (*domain.InviteCode, error) {
	if strings.TrimSpace(circleID) == "" {
		return nil, domain.ErrCircleIDEmpty
	}

	c, err := s.circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, classify("circles.regenerateInviteCode", err)
	}
	if c.LeaderEmail != callerEmail {
		return nil, domain.ErrNotCircleLeader
	}

	var lastErr error
	for attempt := 1; attempt <= maxInviteAttempts; attempt++ {
		inv, err := s.newInvite(c.ID, s.now().UTC())
		if err != nil {
			return nil, apperr.Internal("circles.regenerateInviteCode", err)
		}
		if err := s.invites.Create(ctx, inv); err != nil {
			lastErr = err
			if errors.Is(err, domain.ErrInviteCollision) {
				continue
			}
			break
		}
		return inv, nil
	}
	return nil, apperr.Internal("circles.regenerateInviteCode", lastErr)
}

// JoinCircle admits joinerEmail to the circle behind an active invite code.
// Joining twice, or joining one's own circle, leaves a single membership.
func (s *CircleService) JoinCircle(ctx context.Context, code, joinerEmail string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", domain.ErrInviteCodeEmpty
	}
	if !ValidCodeFormat(code) {
		return "", domain.ErrInviteNotFound
	}

	inv, err := s.invites.FindActive(ctx, code, s.now().UTC())
	if err != nil {
		return "", classify("circles.join", err)
	}

	c, err := s.circles.GetByID(ctx, inv.CircleID)
	if err != nil {
		return "", classify("circles.join", err)
	}
	if c.LeaderEmail == joinerEmail {
		return c.ID, nil
	}

	added, err := s.circles.AddMember(ctx, c.ID, joinerEmail)
	if err != nil {
		return "", apperr.Internal("circles.join", err)
	}

	logging.FromContext(ctx, s.log).Info("circle joined",
		zap.String("circle_id", c.ID),
		zap.String("member", joinerEmail),
		zap.Bool("new_membership", added))
	return c.ID, nil
}

func (s *CircleService) ListCirclesForUser(ctx context.Context, email string) ([]domain.Circle, error) {
	circles, err := s.circles.ListForUser(ctx, email)
	if err != nil {
		return nil, apperr.Internal("circles.list", err)
	}
	return circles, nil
}

// ListMembers returns the circle roster, leader first. The caller must lead
// or belong to the circle.
func (s *CircleService) ListMembers(ctx context.Context, circleID, callerEmail string) ([]domain.Member, error) {
	if strings.TrimSpace(circleID) == "" {
		return nil, domain.ErrCircleIDEmpty
	}

	if _, err := s.circles.GetByID(ctx, circleID); err != nil {
		return nil, classify("circles.members", err)
	}

	ok, err := s.circles.IsParticipant(ctx, circleID, callerEmail)
	if err != nil {
		return nil, apperr.Internal("circles.members", err)
	}
	if !ok {
		return nil, domain.ErrNotCircleMember
	}

	members, err := s.circles.ListMembers(ctx, circleID)
	if err != nil {
		return nil, apperr.Internal("circles.members", err)
	}
	return members, nil
}

// LeaveCircle removes the caller's membership. It is idempotent.
func (s *CircleService) LeaveCircle(ctx context.Context, circleID, email string) error {
	if strings.TrimSpace(circleID) == "" {
		return domain.ErrCircleIDEmpty
	}

	removed, err := s.circles.RemoveMember(ctx, circleID, email)
	if err != nil {
		return apperr.Internal("circles.leave", err)
	}

	logging.FromContext(ctx, s.log).Info("circle left",
		zap.String("circle_id", circleID),
		zap.String("member", email),
		zap.Bool("removed", removed))
	return nil
}

// ResolveAudience returns every user sharing at least one circle with email.
func (s *CircleService) ResolveAudience(ctx context.Context, email string) (*domain.Audience, error) {
	a, err := s.circles.Audience(ctx, email)
	if err != nil {
		return nil, apperr.Internal("circles.audience", err)
	}
	return a, nil
}

func (s *CircleService) newInvite(circleID string, now time.Time) (*domain.InviteCode, error) {
	code, err := s.codes()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}
	return &domain.InviteCode{
		Code:      code,
		CircleID:  circleID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.inviteTTL),
	}, nil
}

func normalizeCircleName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrCircleNameEmpty
	}
	if len([]rune(name)) > maxCircleNameLength {
		return "", domain.ErrCircleNameLength
	}
	return name, nil
}

// classify keeps already-classified errors and marks the rest internal.
func classify(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(op, err)
}
