package post

import "time"

// SummaryMaxLen 摘要最大长度（按字符计）
const SummaryMaxLen = 200

// Post 文章表
// slug 全局唯一，只在创建或标题实际变化时生成
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Summary     string    `gorm:"type:varchar(200)" json:"summary"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CoverPath   string    `gorm:"type:varchar(255)" json:"cover_path"`
	ViewCount   int64     `gorm:"not null;default:0" json:"view_count"`
	IsPublished bool      `gorm:"not null;index" json:"is_published"`
	UserID      uint      `gorm:"not null;index;comment:作者ID" json:"user_id"`
	CategoryID  uint      `gorm:"not null;index;comment:分类ID" json:"category_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "post"
}
