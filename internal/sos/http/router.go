package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/sendSOS", h.SendSOS)
	rg.GET("/sos", h.ListSOS)
	rg.GET("/sos/:id", h.GetSOS)
}
