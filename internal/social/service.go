package social

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	notificationModel "terminal-terrace/sse-blog/internal/model/notification"
	postModel "terminal-terrace/sse-blog/internal/model/post"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/internal/notification"
	"terminal-terrace/sse-blog/internal/post"
	"terminal-terrace/sse-blog/packages/response"
)

var (
	ErrUserNotFound    = response.NotFoundError("用户")
	ErrPostNotFound    = response.NotFoundError("文章")
	ErrSelfFollow      = response.ForbiddenError("不能关注自己")
	ErrSelfFavorite    = response.ForbiddenError("不能收藏自己的文章")
	ErrFollowingHidden = response.ForbiddenError("该用户隐藏了关注列表")
)

type SocialService interface {
	Follow(ctx context.Context, followerID, followedID uint) (*ToggleResult, error)
	Unfollow(ctx context.Context, followerID, followedID uint) (*ToggleResult, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	FollowersCount(ctx context.Context, userID uint) (int64, error)
	FollowingCount(ctx context.Context, userID uint) (int64, error)
	Followers(ctx context.Context, userID uint, page, pageSize int) (*UserPage, error)
	Following(ctx context.Context, viewerID, userID uint, page, pageSize int) (*UserPage, error)

	Favorite(ctx context.Context, userID, postID uint) (*ToggleResult, error)
	Unfavorite(ctx context.Context, userID, postID uint) (*ToggleResult, error)
	IsFavorited(ctx context.Context, userID, postID uint) (bool, error)
	FavoriteCount(ctx context.Context, postID uint) (int64, error)
	Favorites(ctx context.Context, userID uint, q post.ListQuery) (*post.PostPage, error)

	Feed(ctx context.Context, userID uint, q post.ListQuery) (*post.PostPage, error)
}

type socialService struct {
	store    *database.Store
	notifier notification.NotificationService
	opts     Options
}

func NewSocialService(store *database.Store, notifier notification.NotificationService, opts Options) SocialService {
	return &socialService{store: store, notifier: notifier, opts: opts}
}

// ========== 关注 ==========

// Follow 关注用户，已关注时为空操作
// 事务内先查询再插入，ON CONFLICT DO NOTHING 兜底并发重复关注
func (s *socialService) Follow(ctx context.Context, followerID, followedID uint) (*ToggleResult, error) {
	if followerID == followedID {
		return nil, ErrSelfFollow
	}

	var (
		created   bool
		recipient uint
	)
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		created, recipient = false, 0
		repo := NewSocialRepository(tx)

		follower, err := loadUser(tx, followerID)
		if err != nil {
			return err
		}
		followed, err := loadUser(tx, followedID)
		if err != nil {
			return err
		}

		exists, err := repo.IsFollowing(followerID, followedID)
		if err != nil || exists {
			return err
		}
		created, err = repo.InsertFollow(followerID, followedID)
		if err != nil || !created {
			return err
		}

		if !s.opts.FollowNotify || !followed.NotifyFollowed {
			return nil
		}
		recipient = followed.ID
		_, err = s.notifier.Create(ctx, tx, notification.Input{
			RecipientID: followed.ID,
			SenderID:    follower.ID,
			Type:        notificationModel.TypeFollow,
			Message:     notification.FollowMessage(follower.Username),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if recipient != 0 {
		s.notifier.Invalidate(ctx, recipient)
	}
	return &ToggleResult{Changed: created, Active: true}, nil
}

// Unfollow 取消关注，未关注时为空操作
func (s *socialService) Unfollow(ctx context.Context, followerID, followedID uint) (*ToggleResult, error) {
	var removed bool
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := loadUser(tx, followedID); err != nil {
			return err
		}
		var err error
		removed, err = NewSocialRepository(tx).DeleteFollow(followerID, followedID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Changed: removed, Active: false}, nil
}

func (s *socialService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	if followerID == 0 || followedID == 0 {
		return false, nil
	}
	ok, err := NewSocialRepository(s.store.DB(ctx)).IsFollowing(followerID, followedID)
	if err != nil {
		return false, database.Classify(pkgerrors.Wrap(err, "查询关注关系失败"))
	}
	return ok, nil
}

func (s *socialService) FollowersCount(ctx context.Context, userID uint) (int64, error) {
	count, err := NewSocialRepository(s.store.DB(ctx)).CountFollowers(userID)
	if err != nil {
		return 0, database.Classify(pkgerrors.Wrap(err, "统计粉丝失败"))
	}
	return count, nil
}

func (s *socialService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	count, err := NewSocialRepository(s.store.DB(ctx)).CountFollowing(userID)
	if err != nil {
		return 0, database.Classify(pkgerrors.Wrap(err, "统计关注失败"))
	}
	return count, nil
}

func (s *socialService) Followers(ctx context.Context, userID uint, page, pageSize int) (*UserPage, error) {
	db := s.store.DB(ctx)
	if _, err := loadUser(db, userID); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)

	repo := NewSocialRepository(db)
	total, err := repo.CountFollowers(userID)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计粉丝失败"))
	}
	items, err := repo.ListFollowers(userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询粉丝失败"))
	}
	return &UserPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Following 关注列表；用户关闭 show_following 时只有本人可见
func (s *socialService) Following(ctx context.Context, viewerID, userID uint, page, pageSize int) (*UserPage, error) {
	db := s.store.DB(ctx)
	target, err := loadUser(db, userID)
	if err != nil {
		return nil, err
	}
	if !target.ShowFollowing && viewerID != userID {
		return nil, ErrFollowingHidden
	}
	page, pageSize = normalizePage(page, pageSize)

	repo := NewSocialRepository(db)
	total, err := repo.CountFollowing(userID)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计关注失败"))
	}
	items, err := repo.ListFollowing(userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询关注失败"))
	}
	return &UserPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ========== 收藏 ==========

// Favorite 收藏文章，已收藏时为空操作；草稿视为不存在
func (s *socialService) Favorite(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	var (
		created bool
		author  uint
	)
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		created, author = false, 0
		repo := NewSocialRepository(tx)

		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		var p postModel.Post
		if err := tx.First(&p, postID).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if p.UserID == userID {
			return ErrSelfFavorite
		}
		if !p.IsPublished {
			return ErrPostNotFound
		}

		exists, err := repo.IsFavorited(userID, postID)
		if err != nil || exists {
			return err
		}
		created, err = repo.InsertFavorite(userID, postID)
		if err != nil || !created {
			return err
		}

		if !s.opts.FavoriteNotify {
			return nil
		}
		author = p.UserID
		_, err = s.notifier.Create(ctx, tx, notification.Input{
			RecipientID: p.UserID,
			SenderID:    user.ID,
			PostID:      &p.ID,
			Type:        notificationModel.TypeFavorite,
			Message:     notification.FavoriteMessage(user.Username, p.Title),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if author != 0 {
		s.notifier.Invalidate(ctx, author)
	}
	return &ToggleResult{Changed: created, Active: true}, nil
}

func (s *socialService) Unfavorite(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	var removed bool
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		removed, err = NewSocialRepository(tx).DeleteFavorite(userID, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Changed: removed, Active: false}, nil
}

func (s *socialService) IsFavorited(ctx context.Context, userID, postID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	ok, err := NewSocialRepository(s.store.DB(ctx)).IsFavorited(userID, postID)
	if err != nil {
		return false, database.Classify(pkgerrors.Wrap(err, "查询收藏失败"))
	}
	return ok, nil
}

func (s *socialService) FavoriteCount(ctx context.Context, postID uint) (int64, error) {
	count, err := NewSocialRepository(s.store.DB(ctx)).CountFavorites(postID)
	if err != nil {
		return 0, database.Classify(pkgerrors.Wrap(err, "统计收藏失败"))
	}
	return count, nil
}

// Favorites 用户收藏的已发布文章
func (s *socialService) Favorites(ctx context.Context, userID uint, q post.ListQuery) (*post.PostPage, error) {
	return s.listPosts(ctx, post.ListFilter{PublishedOnly: true, FavoritedBy: userID}, q)
}

// Feed 关注的作者发布的文章，新的在前
func (s *socialService) Feed(ctx context.Context, userID uint, q post.ListQuery) (*post.PostPage, error) {
	q.Order = post.OrderRecent
	return s.listPosts(ctx, post.ListFilter{PublishedOnly: true, FollowedBy: userID}, q)
}

func (s *socialService) listPosts(ctx context.Context, f post.ListFilter, q post.ListQuery) (*post.PostPage, error) {
	q = q.Normalize()
	f.Order = q.Order
	f.Offset = q.Offset()
	f.Limit = q.PageSize

	items, total, err := post.NewPostRepository(s.store.DB(ctx)).List(f)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询文章列表失败"))
	}
	return &post.PostPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func loadUser(db *gorm.DB, id uint) (*userModel.User, error) {
	var u userModel.User
	if err := db.First(&u, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
