package taxonomy

import (
	postModel "terminal-terrace/sse-blog/internal/model/post"
)

// CategoryInput 创建或修改分类
type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=200"`
}

// TagInput 创建或修改标签
type TagInput struct {
	Name string `json:"name" binding:"required,max=64"`
}

// CategoryWithCount 分类及其已发布文章数
type CategoryWithCount struct {
	postModel.Category
	PostCount int64 `json:"post_count"`
}

// TagWithCount 标签及其已发布文章数
type TagWithCount struct {
	postModel.Tag
	PostCount int64 `json:"post_count"`
}
