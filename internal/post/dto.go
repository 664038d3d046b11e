package post

import (
	postModel "terminal-terrace/sse-blog/internal/model/post"
)

// 列表排序方式
const (
	OrderRecent  = "recent"
	OrderPopular = "popular"
)

// 分页默认值
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// CreatePostInput 创建文章参数（已由外层校验）
type CreatePostInput struct {
	Title      string
	Content    string
	Summary    string
	CategoryID uint
	TagIDs     []uint
	Published  bool
}

// EditPostInput 编辑文章参数，nil 字段表示不修改
type EditPostInput struct {
	Title      *string
	Content    *string
	Summary    *string
	CategoryID *uint
	TagIDs     *[]uint
	Published  *bool
}

// ListQuery 分页参数
type ListQuery struct {
	Page     int
	PageSize int
	Order    string // recent, popular
}

// Normalize 补全默认分页与排序
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.Order != OrderPopular {
		q.Order = OrderRecent
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// PostSummary 列表项，附带作者名与分类名
type PostSummary struct {
	postModel.Post
	AuthorName   string `json:"author_name"`
	CategoryName string `json:"category_name"`
}

// PostDetail 文章详情
type PostDetail struct {
	PostSummary
	Tags []postModel.Tag `json:"tags"`
}

// PostPage 分页结果
type PostPage struct {
	Items    []PostSummary `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
