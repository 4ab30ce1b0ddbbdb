package router

import (
	"github.com/gin-gonic/gin"

	"replyflow.app/relay/internal/http/handler/webhook"
)

func WebhookRouter(rg *gin.RouterGroup, threads *webhook.ThreadsWebhookHandler) {
	rg.GET("/threads", threads.Verify)
	rg.POST("/threads", threads.HandleEvent)
}
