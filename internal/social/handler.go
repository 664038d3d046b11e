package social

import (
	"terminal-terrace/sse-blog/internal/dto"
	"terminal-terrace/sse-blog/internal/middleware"
	"terminal-terrace/sse-blog/internal/post"

	"github.com/gin-gonic/gin"
)

type SocialHandler struct {
	service SocialService
}

func NewSocialHandler(service SocialService) *SocialHandler {
	return &SocialHandler{service: service}
}

// Follow POST /api/v1/users/:id/follow
func (h *SocialHandler) Follow(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.service.Follow(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Unfollow DELETE /api/v1/users/:id/follow
func (h *SocialHandler) Unfollow(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.service.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Followers GET /api/v1/users/:id/followers
func (h *SocialHandler) Followers(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	page, err := h.service.Followers(c.Request.Context(), id, dto.QueryInt(c, "page", 1), dto.QueryInt(c, "page_size", DefaultPageSize))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// Following GET /api/v1/users/:id/following
func (h *SocialHandler) Following(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	page, err := h.service.Following(c.Request.Context(), middleware.CurrentUserID(c), id,
		dto.QueryInt(c, "page", 1), dto.QueryInt(c, "page_size", DefaultPageSize))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// Favorite POST /api/v1/posts/:id/favorite
func (h *SocialHandler) Favorite(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.service.Favorite(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Unfavorite DELETE /api/v1/posts/:id/favorite
func (h *SocialHandler) Unfavorite(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.service.Unfavorite(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// FavoriteStatus GET /api/v1/posts/:id/favorite
func (h *SocialHandler) FavoriteStatus(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	count, err := h.service.FavoriteCount(ctx, id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	favorited, err := h.service.IsFavorited(ctx, middleware.CurrentUserID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, gin.H{"count": count, "favorited": favorited})
}

func listQuery(c *gin.Context) post.ListQuery {
	return post.ListQuery{
		Page:     dto.QueryInt(c, "page", 1),
		PageSize: dto.QueryInt(c, "page_size", post.DefaultPageSize),
	}
}

// Favorites GET /api/v1/me/favorites
func (h *SocialHandler) Favorites(c *gin.Context) {
	page, err := h.service.Favorites(c.Request.Context(), middleware.CurrentUserID(c), listQuery(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// Feed GET /api/v1/me/feed
func (h *SocialHandler) Feed(c *gin.Context) {
	page, err := h.service.Feed(c.Request.Context(), middleware.CurrentUserID(c), listQuery(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}
