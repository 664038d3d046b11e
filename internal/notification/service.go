package notification

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	notificationModel "terminal-terrace/sse-blog/internal/model/notification"
	"terminal-terrace/sse-blog/packages/response"
)

// 分页默认值
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

var (
	ErrNotificationNotFound = response.NotFoundError("通知")
	ErrNotRecipient         = response.ForbiddenError("只能操作自己的通知")
)

// Input 新通知
type Input struct {
	RecipientID uint
	SenderID    uint
	PostID      *uint
	CommentID   *uint
	Type        string
	Message     string
}

// CommentMessage 评论通知文案
func CommentMessage(username, title string) string {
	return fmt.Sprintf("%s 评论了你的文章 \"%s\"", username, title)
}

// FollowMessage 关注通知文案
func FollowMessage(username string) string {
	return fmt.Sprintf("%s 关注了你", username)
}

// FavoriteMessage 收藏通知文案
func FavoriteMessage(username, title string) string {
	return fmt.Sprintf("%s 收藏了你的文章 \"%s\"", username, title)
}

// NotificationPage 通知分页结果
type NotificationPage struct {
	Items       []notificationModel.Notification `json:"items"`
	Total       int64                            `json:"total"`
	Page        int                              `json:"page"`
	PageSize    int                              `json:"page_size"`
	Filter      string                           `json:"filter"`
	UnreadCount int64                            `json:"unread_count"`
}

type NotificationService interface {
	// Create 在调用方的事务 tx 中写入通知
	// 调用方须在事务提交后调用 Invalidate 清除接收者的未读数缓存
	Create(ctx context.Context, tx *gorm.DB, in Input) (*notificationModel.Notification, error)
	Invalidate(ctx context.Context, userIDs ...uint)

	List(ctx context.Context, userID uint, filter string, page, pageSize int) (*NotificationPage, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	store *database.Store
	cache *UnreadCache
}

func NewNotificationService(store *database.Store, cache *UnreadCache) NotificationService {
	return &notificationService{store: store, cache: cache}
}

func (s *notificationService) Create(ctx context.Context, tx *gorm.DB, in Input) (*notificationModel.Notification, error) {
	if in.RecipientID == 0 || in.Message == "" {
		return nil, response.InvalidParameterError("通知缺少接收者或内容")
	}
	n := &notificationModel.Notification{
		UserID:    in.RecipientID,
		PostID:    in.PostID,
		CommentID: in.CommentID,
		Message:   in.Message,
		Type:      in.Type,
	}
	if in.SenderID != 0 {
		sender := in.SenderID
		n.SenderID = &sender
	}
	if err := NewNotificationRepository(tx.WithContext(ctx)).Create(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *notificationService) Invalidate(ctx context.Context, userIDs ...uint) {
	s.cache.Invalidate(ctx, userIDs...)
}

// List 通知列表，filter 为 unread / read / all，默认 unread
func (s *notificationService) List(ctx context.Context, userID uint, filter string, page, pageSize int) (*NotificationPage, error) {
	if filter != FilterRead && filter != FilterAll {
		filter = FilterUnread
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	repo := NewNotificationRepository(s.store.DB(ctx))
	items, total, err := repo.List(userID, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询通知失败"))
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{
		Items:       items,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		Filter:      filter,
		UnreadCount: unread,
	}, nil
}

// UnreadCount 未读数，优先读缓存
func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if count, ok := s.cache.Get(ctx, userID); ok {
		return count, nil
	}
	// 代数必须在读库之前取，统计期间的写入会让回填失效
	gen, cacheable := s.cache.Generation(ctx, userID)
	count, err := NewNotificationRepository(s.store.DB(ctx)).CountUnread(userID)
	if err != nil {
		return 0, database.Classify(pkgerrors.Wrap(err, "统计未读通知失败"))
	}
	if cacheable {
		s.cache.Set(ctx, userID, gen, count)
	}
	return count, nil
}

// MarkRead 标记单条已读，只有接收者可以操作
func (s *notificationService) MarkRead(ctx context.Context, userID, id uint) error {
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewNotificationRepository(tx)
		n, err := repo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotificationNotFound
			}
			return err
		}
		if n.UserID != userID {
			return ErrNotRecipient
		}
		return repo.MarkRead(n.ID)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	var marked int64
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		marked, err = NewNotificationRepository(tx).MarkAllRead(userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, userID)
	return marked, nil
}
