package user

import "time"

// Follow 关注关系（follower 关注 followed）
// 复合主键兼作唯一约束，是并发重复关注的最终防线
type Follow struct {
	FollowerID uint      `gorm:"primaryKey" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;index" json:"followed_id"`
	Timestamp  time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName 指定表名
func (Follow) TableName() string {
	return "followers"
}
