package taxonomy

import (
	"terminal-terrace/sse-blog/internal/dto"
	"terminal-terrace/sse-blog/internal/middleware"

	"github.com/gin-gonic/gin"
)

type TaxonomyHandler struct {
	service TaxonomyService
}

func NewTaxonomyHandler(service TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{service: service}
}

// ListCategories 全部分类及文章数
// GET /api/v1/categories?owner=
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	items, err := h.service.ListCategoriesByOwner(c.Request.Context(), uint(dto.QueryInt(c, "owner", 0)))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, items)
}

// GetCategory GET /api/v1/categories/slug/:slug
func (h *TaxonomyHandler) GetCategory(c *gin.Context) {
	category, err := h.service.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, category)
}

// CreateCategory POST /api/v1/categories
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, category)
}

// UpdateCategory PUT /api/v1/categories/:id
func (h *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, category)
}

// DeleteCategory DELETE /api/v1/categories/:id
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// ListTags 标签列表，按文章数排序
// GET /api/v1/tags?owner=
func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	items, err := h.service.ListTagsByOwner(c.Request.Context(), uint(dto.QueryInt(c, "owner", 0)))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, items)
}

// GetTag GET /api/v1/tags/slug/:slug
func (h *TaxonomyHandler) GetTag(c *gin.Context) {
	tag, err := h.service.GetTagBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, tag)
}

// CreateTag POST /api/v1/tags
func (h *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	tag, err := h.service.CreateTag(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, tag)
}

// UpdateTag PUT /api/v1/tags/:id
func (h *TaxonomyHandler) UpdateTag(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	tag, err := h.service.UpdateTag(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, tag)
}

// DeleteTag DELETE /api/v1/tags/:id
func (h *TaxonomyHandler) DeleteTag(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTag(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}
