package post

import "time"

// Tag 标签表
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"slug"`
	UserID    uint      `gorm:"not null;index;comment:创建者ID" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tag"
}

// PostTag 文章-标签关联表
type PostTag struct {
	PostID    uint      `gorm:"primaryKey" json:"post_id"`
	TagID     uint      `gorm:"primaryKey;index" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (PostTag) TableName() string {
	return "post_tags"
}
