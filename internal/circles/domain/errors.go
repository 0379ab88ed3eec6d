package domain

import "github.com/Perismakworo/Shesecure2/internal/apperr"

var (
	ErrCircleNotFound   = apperr.NotFound("circles", "circle not found")
	ErrInviteNotFound   = apperr.NotFound("circles.join", "invalid or expired invite code")
	ErrInviteCollision  = apperr.Conflict("circles.invite", "invite code already exists", nil)
	ErrNotCircleLeader  = apperr.Forbidden("circles.invite", "only the circle leader can issue invite codes")
	ErrNotCircleMember  = apperr.Forbidden("circles.members", "you are not a member of this circle")
	ErrCircleNameEmpty  = apperr.Validation("circles.create", "circleName is required")
	ErrCircleNameLength = apperr.Validation("circles.create", "circleName must be at most 100 characters")
	ErrInviteCodeEmpty  = apperr.Validation("circles.join", "inviteCode is required")
	ErrCircleIDEmpty    = apperr.Validation("circles", "circleId is required")
)
