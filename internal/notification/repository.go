package notification

import (
	"gorm.io/gorm"

	notificationModel "terminal-terrace/sse-blog/internal/model/notification"
)

// 列表筛选
const (
	FilterUnread = "unread"
	FilterRead   = "read"
	FilterAll    = "all"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *notificationModel.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) GetByID(id uint) (*notificationModel.Notification, error) {
	var n notificationModel.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) scoped(userID uint, filter string) *gorm.DB {
	query := r.db.Model(&notificationModel.Notification{}).Where("user_id = ?", userID)
	switch filter {
	case FilterUnread:
		query = query.Where("is_read = ?", false)
	case FilterRead:
		query = query.Where("is_read = ?", true)
	}
	return query
}

// List 按时间倒序分页
func (r *NotificationRepository) List(userID uint, filter string, offset, limit int) ([]notificationModel.Notification, int64, error) {
	var total int64
	if err := r.scoped(userID, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := []notificationModel.Notification{}
	err := r.scoped(userID, filter).
		Order("timestamp DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.scoped(userID, FilterUnread).Count(&count).Error
	return count, err
}

// MarkRead 只做 未读 -> 已读
func (r *NotificationRepository) MarkRead(id uint) error {
	return r.db.Model(&notificationModel.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true).Error
}

// MarkAllRead 返回被标记的条数
func (r *NotificationRepository) MarkAllRead(userID uint) (int64, error) {
	result := r.db.Model(&notificationModel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// DetachComments 解除通知对评论的引用，通知本身保留
func (r *NotificationRepository) DetachComments(commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return r.db.Model(&notificationModel.Notification{}).
		Where("comment_id IN ?", commentIDs).
		Update("comment_id", nil).Error
}

// DeleteForUser 删除用户收到和发出的全部通知，返回受影响的接收者
func (r *NotificationRepository) DeleteForUser(userID uint) ([]uint, error) {
	var recipients []uint
	if err := r.db.Model(&notificationModel.Notification{}).
		Where("sender_id = ?", userID).
		Distinct().
		Pluck("user_id", &recipients).Error; err != nil {
		return nil, err
	}
	err := r.db.Where("user_id = ? OR sender_id = ?", userID, userID).
		Delete(&notificationModel.Notification{}).Error
	return recipients, err
}
