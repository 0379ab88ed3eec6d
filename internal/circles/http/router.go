package http

import "github.com/gin-gonic/gin"

// Register attaches circle routes to an authenticated router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/generateInviteCode", h.GenerateInviteCode)
	rg.POST("/joinCircle", h.JoinCircle)
	rg.GET("/getUserCircles", h.GetUserCircles)
	rg.GET("/getCircleMembers", h.GetCircleMembers)
	rg.POST("/leaveCircle", h.LeaveCircle)
	rg.POST("/circles/:id/inviteCode", h.RegenerateInviteCode)
}
