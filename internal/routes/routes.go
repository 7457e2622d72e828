package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/thrivesend/thrivesend-backend/internal/config"
	"github.com/thrivesend/thrivesend-backend/internal/handler"
	"github.com/thrivesend/thrivesend-backend/internal/middleware"
	"github.com/thrivesend/thrivesend-backend/pkg/jwt"
)

// Handlers groups the HTTP handlers wired by main
type Handlers struct {
	Approval     *handler.ApprovalHandler
	Content      *handler.ContentHandler
	Notification *handler.NotificationHandler
	WS           *handler.WSHandler
	Health       *handler.HealthHandler
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, jwtManager *jwt.Manager, redisClient *redis.Client, cfg *config.Config) {
	if h.Health != nil {
		router.GET("/health", h.Health.Check)
	}

	auth := middleware.BearerAuth(jwtManager)

	// 모든 API 는 인증 필수, 인증 실패 시 핸들러/DB 접근 없음
	api := router.Group("/api/v1", auth, middleware.RateLimit(redisClient, cfg.RateLimit.RequestsPerMinute))

	approvals := api.Group("/approvals")
	{
		approvals.GET("", h.Approval.List)
		approvals.POST("/:id/approve", h.Approval.Approve)
		approvals.POST("/:id/reject", h.Approval.Reject)
		approvals.POST("/:id/resubmit", h.Approval.Resubmit)
		approvals.POST("/:id/assign", h.Approval.Assign)
		approvals.GET("/:id/history", h.Approval.History)
		approvals.POST("/:id/history/archive", h.Approval.ArchiveHistory)
		if cfg.Approval.EnableTestEndpoint {
			approvals.POST("/test", h.Approval.CreateTest)
		}
	}

	contents := api.Group("/contents")
	{
		contents.POST("", h.Content.Create)
		contents.GET("", h.Content.List)
		contents.GET("/:id", h.Content.Get)
		contents.POST("/:id/submit", h.Content.Submit)
		contents.POST("/:id/publish", h.Content.Publish)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.Notification.GetList)
		notifications.GET("/unread-count", h.Notification.GetUnreadCount)
		notifications.POST("/read-all", h.Notification.MarkAllAsRead)
		notifications.POST("/:id/read", h.Notification.MarkAsRead)
	}

	if h.WS != nil {
		router.GET("/ws/notifications", auth, h.WS.Connect)
	}
}
