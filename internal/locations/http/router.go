package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/updateLocation", h.UpdateLocation)
	rg.GET("/getCircleLocations", h.GetCircleLocations)
	rg.GET("/getLocationHistory", h.GetLocationHistory)
}
