package router

import (
	"github.com/gin-gonic/gin"

	"replyflow.app/relay/internal/http/handler"
)

func AutoReplyRouter(rg *gin.RouterGroup, h *handler.AutoReplyHandler) {
	rg.POST("/process", h.Process)
	rg.POST("/sweep", h.Sweep)
	rg.GET("/rules/:rule_id/history", h.History)
}
