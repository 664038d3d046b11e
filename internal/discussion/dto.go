package discussion

import (
	"time"

	commentModel "terminal-terrace/sse-blog/internal/model/comment"
)

// ========== 请求 DTO ==========

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"` // 评论内容，1-5000字符
	ParentID *uint  `json:"parent_id"`                                 // 回复的评论，为空表示顶级评论
}

// ========== 响应 DTO ==========

// CommentResponse 评论响应
type CommentResponse struct {
	ID         uint      `json:"id"`
	PostID     uint      `json:"post_id"`
	ParentID   *uint     `json:"parent_id,omitempty"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"is_approved"`
	Author     *UserInfo `json:"author,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ReplyCount int64     `json:"reply_count"`
}

// UserInfo 评论作者信息（简化版）
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// CommentsListResponse 文章评论列表
type CommentsListResponse struct {
	Comments []*CommentResponse `json:"comments"`
	Total    int64              `json:"total"` // 已审核评论总数（包括回复）
}

// ToCommentResponse 将 Model 转换为 Response DTO
func ToCommentResponse(comment *commentModel.Comment, author *UserInfo) *CommentResponse {
	return &CommentResponse{
		ID:         comment.ID,
		PostID:     comment.PostID,
		ParentID:   comment.ParentID,
		Content:    comment.Content,
		IsApproved: comment.IsApproved,
		Author:     author,
		CreatedAt:  comment.CreatedAt,
	}
}
