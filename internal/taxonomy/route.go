package taxonomy

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册分类与标签路由
func RegisterRoutes(r *gin.RouterGroup, h *TaxonomyHandler, auth gin.HandlerFunc) {
	categories := r.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/slug/:slug", h.GetCategory)
		categories.POST("", auth, h.CreateCategory)
		categories.PUT("/:id", auth, h.UpdateCategory)
		categories.DELETE("/:id", auth, h.DeleteCategory)
	}

	tags := r.Group("/tags")
	{
		tags.GET("", h.ListTags)
		tags.GET("/slug/:slug", h.GetTag)
		tags.POST("", auth, h.CreateTag)
		tags.PUT("/:id", auth, h.UpdateTag)
		tags.DELETE("/:id", auth, h.DeleteTag)
	}
}
