package notification

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册通知路由，全部需要登录
func RegisterRoutes(r *gin.RouterGroup, h *NotificationHandler, auth gin.HandlerFunc) {
	notifications := r.Group("/notifications", auth)
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.POST("/:id/read", h.MarkRead)
	}
}
