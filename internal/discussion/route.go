package discussion

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册评论相关路由
func RegisterRoutes(router *gin.RouterGroup, handler *DiscussionHandler, auth gin.HandlerFunc) {
	// ========== 文章评论路由 ==========
	posts := router.Group("/posts")
	{
		posts.GET("/:id/comments", handler.GetPostComments)
		posts.POST("/:id/comments", auth, handler.CreateComment)
	}

	// ========== 评论操作路由 ==========
	comments := router.Group("/comments")
	{
		comments.GET("/:commentId/replies", handler.GetReplies)
		comments.DELETE("/:commentId", auth, handler.DeleteComment)
	}

	// ========== 评论管理路由 ==========
	admin := router.Group("/admin/comments", auth)
	{
		admin.DELETE("/:commentId", handler.ModerateDelete)
		admin.POST("/:commentId/approval", handler.ToggleApproval)
	}
}
