package notification

import (
	"terminal-terrace/sse-blog/internal/dto"
	"terminal-terrace/sse-blog/internal/middleware"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service NotificationService
}

func NewNotificationHandler(service NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List GET /api/v1/notifications?filter=unread|read|all&page=
func (h *NotificationHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), middleware.CurrentUserID(c),
		c.DefaultQuery("filter", FilterUnread),
		dto.QueryInt(c, "page", 1),
		dto.QueryInt(c, "page_size", DefaultPageSize),
	)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// UnreadCount GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, gin.H{"unread_count": count})
}

// MarkRead POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// MarkAllRead POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	marked, err := h.service.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, gin.H{"marked": marked})
}
