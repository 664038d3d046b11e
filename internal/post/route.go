package post

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册文章路由
// auth 为必需认证中间件，optionalAuth 为可选认证（用于草稿可见性）
func RegisterRoutes(r *gin.RouterGroup, h *PostHandler, auth, optionalAuth gin.HandlerFunc) {
	posts := r.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.GET("/popular", h.Popular)
		posts.GET("/slug/:slug", optionalAuth, h.GetPost)
		posts.GET("/:id/related", h.Related)
		posts.POST("/:id/view", h.View)

		posts.POST("", auth, h.CreatePost)
		posts.PUT("/:id", auth, h.EditPost)
		posts.PUT("/:id/cover", auth, h.UploadCover)
		posts.DELETE("/:id", auth, h.DeletePost)
	}

	r.GET("/categories/:id/posts", h.ListByCategory)
	r.GET("/tags/:id/posts", h.ListByTag)
	r.GET("/users/:id/posts", optionalAuth, h.ListByAuthor)
}
