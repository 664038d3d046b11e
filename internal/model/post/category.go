package post

import "time"

// Category 分类表
// 仍有文章时禁止删除，由服务层在删除前检查
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:varchar(200)" json:"description"`
	UserID      uint      `gorm:"not null;index;comment:创建者ID" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "category"
}
