package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Perismakworo/Shesecure2/internal/api/http/respond"
	"github.com/Perismakworo/Shesecure2/internal/auth"
)

func (h *Handler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "latitude and longitude are required")
		return
	}

	if _, err := h.svc.UpdateLocation(c.Request.Context(), auth.CallerEmail(c), *req.Latitude, *req.Longitude); err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location updated successfully"})
}

// GetCircleLocations lists the last known position of everyone sharing a circle with the caller.
func (h *Handler) GetCircleLocations(c *gin.Context) {
	locs, err := h.svc.CircleLocations(c.Request.Context(), auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, locs)
}

func (h *Handler) GetLocationHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.BadRequest(c, "invalid query parameters")
		return
	}

	points, err := h.svc.History(c.Request.Context(), auth.CallerEmail(c), q.MemberEmail, q.Limit)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, points)
}
