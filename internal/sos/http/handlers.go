package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Perismakworo/Shesecure2/internal/api/http/respond"
	"github.com/Perismakworo/Shesecure2/internal/auth"
)

// SendSOS accepts the alert and answers before any notification goes out.
func (h *Handler) SendSOS(c *gin.Context) {
	var req sendSOSReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "latitude and longitude are required")
		return
	}

	trig, err := h.engine.Trigger(c.Request.Context(), auth.CallerEmail(c), *req.Latitude, *req.Longitude)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, sendSOSResp{
		Message:      "SOS sent successfully",
		SOSID:        trig.SOSID,
		AudienceSize: trig.AudienceSize,
	})
}

func (h *Handler) GetSOS(c *gin.Context) {
	d, err := h.engine.Get(c.Request.Context(), c.Param("id"), auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// ListSOS returns the caller's recent alerts with delivery counts.
func (h *Handler) ListSOS(c *gin.Context) {
	list, err := h.engine.List(c.Request.Context(), auth.CallerEmail(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, list)
}
