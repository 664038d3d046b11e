package social

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册关注与收藏路由
func RegisterRoutes(r *gin.RouterGroup, h *SocialHandler, auth, optionalAuth gin.HandlerFunc) {
	users := r.Group("/users")
	{
		users.POST("/:id/follow", auth, h.Follow)
		users.DELETE("/:id/follow", auth, h.Unfollow)
		users.GET("/:id/followers", h.Followers)
		users.GET("/:id/following", optionalAuth, h.Following)
	}

	posts := r.Group("/posts")
	{
		posts.GET("/:id/favorite", optionalAuth, h.FavoriteStatus)
		posts.POST("/:id/favorite", auth, h.Favorite)
		posts.DELETE("/:id/favorite", auth, h.Unfavorite)
	}

	me := r.Group("/me", auth)
	{
		me.GET("/favorites", h.Favorites)
		me.GET("/feed", h.Feed)
	}
}
