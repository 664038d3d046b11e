package user

import "time"

// Permission 权限位
type Permission int

const (
	PermComment  Permission = 0x01 // 发表评论
	PermWrite    Permission = 0x02 // 撰写文章
	PermModerate Permission = 0x04 // 管理评论
	PermAdmin    Permission = 0x80 // 管理员
)

// 普通用户持有的权限
const defaultPermissions = PermComment | PermWrite

// User 用户表
// username 与 email 按存储值区分大小写唯一
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Bio          string    `gorm:"type:text" json:"bio"`
	AvatarPath   string    `gorm:"type:varchar(255)" json:"avatar_path"`
	IsAdmin      bool      `gorm:"not null" json:"is_admin"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`

	// 通知与隐私偏好
	NotifyFollowed bool `gorm:"not null" json:"notify_followed"`
	NotifyComment  bool `gorm:"not null" json:"notify_comment"`
	NotifyReply    bool `gorm:"not null" json:"notify_reply"`
	ShowEmail      bool `gorm:"not null" json:"show_email"`
	ShowFollowing  bool `gorm:"not null" json:"show_following"`
}

// TableName 指定表名
func (User) TableName() string {
	return "user"
}

// Can 检查权限：管理员拥有全部权限，其余权限要求账号处于激活状态
func (u *User) Can(perm Permission) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	if !u.IsActive {
		return false
	}
	return defaultPermissions&perm == perm
}

// IsAdministrator 是否管理员
func (u *User) IsAdministrator() bool {
	return u.Can(PermAdmin)
}
