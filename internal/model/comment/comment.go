package comment

import (
	"time"

	"gorm.io/gorm"
)

// Comment 评论表
// ParentID 为空表示顶级评论
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null;comment:评论内容" json:"content"`
	IsApproved bool      `gorm:"not null;index" json:"is_approved"`
	PostID     uint      `gorm:"not null;index;comment:文章ID" json:"post_id"`
	UserID     uint      `gorm:"not null;index;comment:作者ID" json:"user_id"`
	ParentID   *uint     `gorm:"index;comment:父评论ID" json:"parent_id,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comment"
}

// BeforeCreate GORM钩子：创建前的验证
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.Content == "" {
		return gorm.ErrInvalidData
	}
	return nil
}
