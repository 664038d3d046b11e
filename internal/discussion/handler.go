package discussion

import (
	"terminal-terrace/sse-blog/internal/dto"
	"terminal-terrace/sse-blog/internal/middleware"

	"github.com/gin-gonic/gin"
)

// DiscussionHandler 评论处理器
type DiscussionHandler struct {
	service DiscussionService
}

// NewDiscussionHandler 创建处理器实例
func NewDiscussionHandler(service DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{
		service: service,
	}
}

// GetPostComments 获取文章的评论
// GET /api/v1/posts/:id/comments
func (h *DiscussionHandler) GetPostComments(c *gin.Context) {
	postID, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.ListForPost(c.Request.Context(), postID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// CreateComment 发表评论或回复
// POST /api/v1/posts/:id/comments
func (h *DiscussionHandler) CreateComment(c *gin.Context) {
	postID, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.service.AddComment(c.Request.Context(), postID, middleware.CurrentUserID(c), &req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// GetReplies 获取评论的回复
// GET /api/v1/comments/:commentId/replies
func (h *DiscussionHandler) GetReplies(c *gin.Context) {
	commentID, ok := dto.ParseIDParam(c, "commentId")
	if !ok {
		return
	}

	result, err := h.service.ListReplies(c.Request.Context(), commentID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// DeleteComment 删除自己的评论
// DELETE /api/v1/comments/:commentId
func (h *DiscussionHandler) DeleteComment(c *gin.Context) {
	commentID, ok := dto.ParseIDParam(c, "commentId")
	if !ok {
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), commentID, middleware.CurrentUserID(c)); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// ModerateDelete 版主删除评论
// DELETE /api/v1/admin/comments/:commentId
func (h *DiscussionHandler) ModerateDelete(c *gin.Context) {
	commentID, ok := dto.ParseIDParam(c, "commentId")
	if !ok {
		return
	}

	if err := h.service.AdminDeleteComment(c.Request.Context(), middleware.CurrentUserID(c), commentID); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// ToggleApproval 切换审核状态
// POST /api/v1/admin/comments/:commentId/approval
func (h *DiscussionHandler) ToggleApproval(c *gin.Context) {
	commentID, ok := dto.ParseIDParam(c, "commentId")
	if !ok {
		return
	}

	result, err := h.service.ToggleApproval(c.Request.Context(), middleware.CurrentUserID(c), commentID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}
