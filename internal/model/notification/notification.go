package notification

import "time"

// 通知类型
const (
	TypeComment  = "comment"
	TypeFollow   = "follow"
	TypeFavorite = "favorite"
)

// Notification 通知表
// 只有 未读 -> 已读 一个方向的状态变化
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_notification_user_read;comment:接收者ID" json:"user_id"`
	SenderID  *uint     `gorm:"index" json:"sender_id,omitempty"`
	PostID    *uint     `gorm:"index" json:"post_id,omitempty"`
	CommentID *uint     `gorm:"index" json:"comment_id,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"type:varchar(20);not null" json:"type"`
	IsRead    bool      `gorm:"not null;index:idx_notification_user_read" json:"is_read"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notification"
}
