package post

import (
	"path/filepath"

	"terminal-terrace/sse-blog/internal/dto"
	"terminal-terrace/sse-blog/internal/middleware"
	"terminal-terrace/sse-blog/packages/response"

	"github.com/gin-gonic/gin"
)

// CreatePostRequest 创建文章请求
type CreatePostRequest struct {
	Title      string `json:"title" binding:"required,max=200"`
	Content    string `json:"content" binding:"required"`
	Summary    string `json:"summary" binding:"max=200"`
	CategoryID uint   `json:"category_id" binding:"required"`
	TagIDs     []uint `json:"tag_ids"`
	Published  bool   `json:"published"`
}

// EditPostRequest 编辑文章请求，省略的字段不修改
type EditPostRequest struct {
	Title      *string `json:"title" binding:"omitempty,max=200"`
	Content    *string `json:"content"`
	Summary    *string `json:"summary"`
	CategoryID *uint   `json:"category_id"`
	TagIDs     *[]uint `json:"tag_ids"`
	Published  *bool   `json:"published"`
}

type PostHandler struct {
	service PostService
}

func NewPostHandler(service PostService) *PostHandler {
	return &PostHandler{service: service}
}

func listQuery(c *gin.Context) ListQuery {
	return ListQuery{
		Page:     dto.QueryInt(c, "page", 1),
		PageSize: dto.QueryInt(c, "page_size", DefaultPageSize),
		Order:    c.Query("order"),
	}
}

// ListPosts 已发布文章列表
// GET /api/v1/posts?page=&page_size=&order=recent|popular&q=
func (h *PostHandler) ListPosts(c *gin.Context) {
	var (
		page *PostPage
		err  error
	)
	if keyword := c.Query("q"); keyword != "" {
		page, err = h.service.Search(c.Request.Context(), keyword, listQuery(c))
	} else {
		page, err = h.service.ListPublished(c.Request.Context(), listQuery(c))
	}
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// ListByCategory GET /api/v1/categories/:id/posts
func (h *PostHandler) ListByCategory(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	page, err := h.service.ListByCategory(c.Request.Context(), id, listQuery(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// ListByTag GET /api/v1/tags/:id/posts
func (h *PostHandler) ListByTag(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	page, err := h.service.ListByTag(c.Request.Context(), id, listQuery(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// ListByAuthor GET /api/v1/users/:id/posts
func (h *PostHandler) ListByAuthor(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	page, err := h.service.ListByAuthor(c.Request.Context(), id, middleware.CurrentUserID(c), listQuery(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// Popular GET /api/v1/posts/popular
func (h *PostHandler) Popular(c *gin.Context) {
	items, err := h.service.Popular(c.Request.Context(), dto.QueryInt(c, "limit", 5))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, items)
}

// GetPost 文章详情
// GET /api/v1/posts/slug/:slug
func (h *PostHandler) GetPost(c *gin.Context) {
	detail, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), middleware.CurrentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, detail)
}

// Related GET /api/v1/posts/:id/related
func (h *PostHandler) Related(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Related(c.Request.Context(), id, dto.QueryInt(c, "limit", 5))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, items)
}

// View 浏览量加一
// POST /api/v1/posts/:id/view
func (h *PostHandler) View(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.IncrementView(c.Request.Context(), id); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// CreatePost POST /api/v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), &CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Summary:    req.Summary,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
		Published:  req.Published,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, post)
}

// EditPost PUT /api/v1/posts/:id
func (h *PostHandler) EditPost(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req EditPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	post, err := h.service.EditPost(c.Request.Context(), middleware.CurrentUserID(c), id, &EditPostInput{
		Title:      req.Title,
		Content:    req.Content,
		Summary:    req.Summary,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
		Published:  req.Published,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, post)
}

// UploadCover 上传封面（multipart 字段 cover）
// PUT /api/v1/posts/:id/cover
func (h *PostHandler) UploadCover(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("cover")
	if err != nil {
		dto.ErrorResponse(c, response.NewBusinessError(
			response.WithErrorCode(response.ParseError),
			response.WithErrorMessage("请上传封面图片"),
		))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	defer file.Close()

	post, err := h.service.SetCover(c.Request.Context(), middleware.CurrentUserID(c), id, file, filepath.Ext(fileHeader.Filename))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, post)
}

// DeletePost DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePost(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}
