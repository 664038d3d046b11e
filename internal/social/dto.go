package social

import (
	"time"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Options 社交通知开关
type Options struct {
	FollowNotify   bool // 被关注时通知（同时受接收者 notify_followed 偏好控制）
	FavoriteNotify bool // 文章被收藏时通知
}

// UserBrief 关注列表中的用户
type UserBrief struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Bio        string    `json:"bio"`
	AvatarPath string    `json:"avatar_path"`
	Since      time.Time `json:"since"` // 关注时间
}

// UserPage 用户分页结果
type UserPage struct {
	Items    []UserBrief `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ToggleResult 关注/收藏操作结果
type ToggleResult struct {
	Changed bool `json:"changed"` // 本次调用是否实际创建或删除了关系
	Active  bool `json:"active"`  // 操作后关系是否存在
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
