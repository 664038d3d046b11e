package user

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	"terminal-terrace/sse-blog/internal/discussion"
	"terminal-terrace/sse-blog/internal/logger"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/internal/notification"
	"terminal-terrace/sse-blog/internal/post"
	"terminal-terrace/sse-blog/internal/social"
	"terminal-terrace/sse-blog/internal/upload"
	"terminal-terrace/sse-blog/packages/response"
)

var (
	ErrNotAdmin        = response.ForbiddenError("需要管理员权限")
	ErrSelfTarget      = response.ForbiddenError("不能对自己执行该操作")
	ErrAdminTarget     = response.ForbiddenError("不能删除管理员账号")
	ErrCategoriesInUse = response.InUseError("该用户的分类仍被其他作者的文章使用")
)

// AdminService 管理后台，所有操作要求调用者是管理员
type AdminService interface {
	ListUsers(ctx context.Context, actorID uint, page, pageSize int) (*UserPage, error)
	ToggleActive(ctx context.Context, actorID, targetID uint) (*AdminUser, error)
	DeleteUser(ctx context.Context, actorID, targetID uint) error
	Stats(ctx context.Context, actorID uint) (*SiteStats, error)
}

type adminService struct {
	store    *database.Store
	notifier notification.NotificationService
	images   upload.ImageStore
}

func NewAdminService(store *database.Store, notifier notification.NotificationService, images upload.ImageStore) AdminService {
	return &adminService{store: store, notifier: notifier, images: images}
}

func (s *adminService) ListUsers(ctx context.Context, actorID uint, page, pageSize int) (*UserPage, error) {
	db := s.store.DB(ctx)
	if err := requireAdmin(db, actorID); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)

	items, total, err := NewUserRepository(db).List((page-1)*pageSize, pageSize)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询用户列表失败"))
	}
	return &UserPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ToggleActive 启用或禁用账号
func (s *adminService) ToggleActive(ctx context.Context, actorID, targetID uint) (*AdminUser, error) {
	if actorID == targetID {
		return nil, ErrSelfTarget
	}

	var target *userModel.User
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		var err error
		target, err = loadUser(tx, targetID)
		if err != nil {
			return err
		}
		target.IsActive = !target.IsActive
		return NewUserRepository(tx).Update(target.ID, map[string]interface{}{"is_active": target.IsActive})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"user_id":   targetID,
		"is_active": target.IsActive,
	}).Info("切换账号状态")
	return &AdminUser{
		ID:        target.ID,
		Username:  target.Username,
		Email:     target.Email,
		IsAdmin:   target.IsAdmin,
		IsActive:  target.IsActive,
		CreatedAt: target.CreatedAt,
		LastSeen:  target.LastSeen,
	}, nil
}

// DeleteUser 在一个事务中删除用户及其全部数据：
// 文章（含评论、标签关联、收藏）、评论、未被他人使用的分类与标签、关注与收藏关系、通知
// 分类仍被其他作者的文章引用时整体失败；图片文件在提交后清理
func (s *adminService) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfTarget
	}

	var (
		files      []string
		recipients []uint
	)
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		files, recipients = nil, nil

		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		target, err := loadUser(tx, targetID)
		if err != nil {
			return err
		}
		if target.IsAdmin {
			return ErrAdminTarget
		}

		repo := NewUserRepository(tx)
		posts := post.NewPostRepository(tx)

		postIDs, err := posts.IDsByAuthor(target.ID)
		if err != nil {
			return err
		}
		covers, err := posts.CoverPaths(postIDs)
		if err != nil {
			return err
		}
		if err := posts.DeleteCascade(postIDs); err != nil {
			return err
		}

		if err := discussion.DeleteUserComments(tx, target.ID); err != nil {
			return err
		}

		inUse, err := repo.CategoriesUsedByOthers(target.ID)
		if err != nil {
			return err
		}
		if len(inUse) > 0 {
			return response.InUseError(fmt.Sprintf("%s: %s", ErrCategoriesInUse.Msg, strings.Join(inUse, ", ")))
		}
		if err := repo.DeleteCategoriesOf(target.ID); err != nil {
			return err
		}
		if err := repo.DeleteUnusedTagsOf(target.ID); err != nil {
			return err
		}

		edges := social.NewSocialRepository(tx)
		if err := edges.DeleteFollowsOf(target.ID); err != nil {
			return err
		}
		if err := edges.DeleteFavoritesOf(target.ID); err != nil {
			return err
		}

		recipients, err = notification.NewNotificationRepository(tx).DeleteForUser(target.ID)
		if err != nil {
			return err
		}

		if err := repo.Delete(target.ID); err != nil {
			return err
		}

		files = append(covers, target.AvatarPath)
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Invalidate(ctx, append(recipients, targetID)...)
	for _, f := range files {
		removeImage(s.images, f)
	}
	logger.Log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"user_id":  targetID,
	}).Info("删除用户")
	return nil
}

// Stats 站点总体统计
func (s *adminService) Stats(ctx context.Context, actorID uint) (*SiteStats, error) {
	db := s.store.DB(ctx)
	if err := requireAdmin(db, actorID); err != nil {
		return nil, err
	}
	stats, err := NewUserRepository(db).SiteStats()
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计站点数据失败"))
	}
	return stats, nil
}

func requireAdmin(db *gorm.DB, actorID uint) error {
	actor, err := loadUser(db, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdministrator() {
		return ErrNotAdmin
	}
	return nil
}
