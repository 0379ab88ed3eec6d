package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Perismakworo/Shesecure2/internal/api/http/respond"
	"github.com/Perismakworo/Shesecure2/internal/auth"
)

// GenerateInviteCode creates a circle led by the caller together with its first invite code.
func (h *Handler) GenerateInviteCode(c *gin.Context) {
	var req generateInviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}

	inv, err := h.svc.GenerateInviteCode(c.Request.Context(), req.CircleName, auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, inviteResp{Code: inv.Code, CircleID: inv.CircleID, ExpiresAt: inv.ExpiresAt})
}

// RegenerateInviteCode issues a new code for an existing circle.
func (h *Handler) RegenerateInviteCode(c *gin.Context) {
	inv, err := h.svc.RegenerateInviteCode(c.Request.Context(), c.Param("id"), auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, inviteResp{Code: inv.Code, CircleID: inv.CircleID, ExpiresAt: inv.ExpiresAt})
}

func (h *Handler) JoinCircle(c *gin.Context) {
	var req joinCircleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}

	circleID, err := h.svc.JoinCircle(c.Request.Context(), req.InviteCode, auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined the circle", "circleId": circleID})
}

func (h *Handler) GetUserCircles(c *gin.Context) {
	circles, err := h.svc.ListCirclesForUser(c.Request.Context(), auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	out := make([]circleResp, 0, len(circles))
	for _, ci := range circles {
		out = append(out, circleResp{ID: ci.ID, Name: ci.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCircleMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(c.Request.Context(), c.Query("circleId"), auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	out := make([]memberResp, 0, len(members))
	for _, m := range members {
		out = append(out, memberResp{Email: m.Email, Name: m.Name, PushToken: m.PushToken})
	}
	c.JSON(http.StatusOK, out)
}

// LeaveCircle always succeeds for a well-formed request, even if the caller
// was not a member.
func (h *Handler) LeaveCircle(c *gin.Context) {
	var req leaveCircleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}

	if err := h.svc.LeaveCircle(c.Request.Context(), req.CircleID, auth.CallerEmail(c)); err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully left the circle"})
}
