package model

import (
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/model/comment"
	"terminal-terrace/sse-blog/internal/model/notification"
	"terminal-terrace/sse-blog/internal/model/post"
	"terminal-terrace/sse-blog/internal/model/user"
)

// GetModels 返回需要迁移的全部模型
func GetModels() []interface{} {
	return []interface{}{
		// 用户与关注
		&user.User{},
		&user.Follow{},
		// 分类、标签、文章
		&post.Category{},
		&post.Tag{},
		&post.Post{},
		&post.PostTag{},
		&post.Favorite{},
		// 评论与通知
		&comment.Comment{},
		&notification.Notification{},
	}
}

func InitTable(db *gorm.DB) error {
	return db.AutoMigrate(GetModels()...)
}
