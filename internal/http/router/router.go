package router

import (
	"github.com/gin-gonic/gin"

	"replyflow.app/relay/internal/http/handler"
	"replyflow.app/relay/internal/http/handler/webhook"
	"replyflow.app/relay/internal/http/middleware"
	"replyflow.app/relay/internal/service"
)

type RouterConfig struct {
	AdminAPIKey        string
	ThreadsAppSecret   string
	WebhookVerifyToken string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	threadsHandler := webhook.NewThreadsWebhookHandler(services.Ingest(), cfg.ThreadsAppSecret, cfg.WebhookVerifyToken)
	WebhookRouter(router.Group("/webhooks"), threadsHandler)

	v1 := router.Group("/api/v1", middleware.RequireAdminAPIKey(cfg.AdminAPIKey))
	{
		autoReplyHandler := handler.NewAutoReplyHandler(services.AutoReply())
		AutoReplyRouter(v1.Group("/accounts/:account_id/auto-reply"), autoReplyHandler)
	}
}
