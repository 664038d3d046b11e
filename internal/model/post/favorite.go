package post

import "time"

// Favorite 收藏表
type Favorite struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;index" json:"post_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (Favorite) TableName() string {
	return "favorites"
}
