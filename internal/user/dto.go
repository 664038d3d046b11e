package user

import (
	"time"

	"terminal-terrace/sse-blog/internal/post"
)

// Options 用户服务配置
type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	ResetTTL   time.Duration
	BaseURL    string // 重置密码链接前缀
	BcryptCost int    // 0 使用 bcrypt.DefaultCost
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ProfileInput 省略的字段不修改
type ProfileInput struct {
	Username *string
	Email    *string
	Bio      *string
}

// SettingsInput 通知与隐私偏好，省略的字段不修改
type SettingsInput struct {
	NotifyFollowed *bool
	NotifyComment  *bool
	NotifyReply    *bool
	ShowEmail      *bool
	ShowFollowing  *bool
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *Me       `json:"user"`
}

// Me 当前用户完整信息（含邮箱与偏好）
type Me struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	AvatarPath     string    `json:"avatar_path"`
	IsAdmin        bool      `json:"is_admin"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	LastSeen       time.Time `json:"last_seen"`
	NotifyFollowed bool      `json:"notify_followed"`
	NotifyComment  bool      `json:"notify_comment"`
	NotifyReply    bool      `json:"notify_reply"`
	ShowEmail      bool      `json:"show_email"`
	ShowFollowing  bool      `json:"show_following"`
}

// Profile 公开资料；邮箱仅在用户允许或本人查看时返回
type Profile struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Bio         string    `json:"bio"`
	AvatarPath  string    `json:"avatar_path"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
	Followers   int64     `json:"followers"`
	Following   int64     `json:"following"`
	IsFollowing bool      `json:"is_following"`
}

// Dashboard 个人面板统计
type Dashboard struct {
	PostCount      int64              `json:"post_count"`
	PublishedCount int64              `json:"published_count"`
	TotalViews     int64              `json:"total_views"`
	CommentCount   int64              `json:"comment_count"`
	FollowerCount  int64              `json:"follower_count"`
	FollowingCount int64              `json:"following_count"`
	FavoriteCount  int64              `json:"favorite_count"`
	RecentPosts    []post.PostSummary `json:"recent_posts"`
}

// SiteStats 管理后台统计
type SiteStats struct {
	Users      int64 `json:"users"`
	Posts      int64 `json:"posts"`
	Comments   int64 `json:"comments"`
	Categories int64 `json:"categories"`
	Tags       int64 `json:"tags"`
}

// AdminUser 管理后台的用户行
type AdminUser struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	PostCount int64     `json:"post_count"`
}

type UserPage struct {
	Items    []AdminUser `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	recentPostLimit = 5
)

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
