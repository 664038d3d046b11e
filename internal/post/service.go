package post

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	"terminal-terrace/sse-blog/internal/logger"
	postModel "terminal-terrace/sse-blog/internal/model/post"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/internal/slug"
	"terminal-terrace/sse-blog/internal/upload"
	"terminal-terrace/sse-blog/packages/response"
)

var (
	ErrPostNotFound   = response.NotFoundError("文章")
	ErrUserNotFound   = response.NotFoundError("用户")
	ErrEmptyTitle     = response.InvalidParameterError("标题不能为空")
	ErrEmptyContent   = response.InvalidParameterError("内容不能为空")
	ErrSummaryTooLong = response.InvalidParameterError("摘要不能超过200字")
	ErrInvalidSlug    = response.InvalidParameterError("标题无法生成有效的 slug")
	ErrNotPostOwner   = response.ForbiddenError("只能操作自己的文章")
	ErrCannotWrite    = response.ForbiddenError("没有写文章的权限")
)

// PostService 文章服务接口
type PostService interface {
	CreatePost(ctx context.Context, authorID uint, in *CreatePostInput) (*postModel.Post, error)
	EditPost(ctx context.Context, actorID, postID uint, in *EditPostInput) (*postModel.Post, error)
	SetCover(ctx context.Context, actorID, postID uint, r io.Reader, ext string) (*postModel.Post, error)
	DeletePost(ctx context.Context, actorID, postID uint) error
	IncrementView(ctx context.Context, postID uint) error

	GetByID(ctx context.Context, postID uint) (*postModel.Post, error)
	GetBySlug(ctx context.Context, slug string, viewerID uint) (*PostDetail, error)
	ListPublished(ctx context.Context, q ListQuery) (*PostPage, error)
	ListByCategory(ctx context.Context, categoryID uint, q ListQuery) (*PostPage, error)
	ListByTag(ctx context.Context, tagID uint, q ListQuery) (*PostPage, error)
	ListByAuthor(ctx context.Context, authorID, viewerID uint, q ListQuery) (*PostPage, error)
	Search(ctx context.Context, keyword string, q ListQuery) (*PostPage, error)
	Popular(ctx context.Context, limit int) ([]PostSummary, error)
	Related(ctx context.Context, postID uint, limit int) ([]PostSummary, error)
	TagsOf(ctx context.Context, postID uint) ([]postModel.Tag, error)
}

type postService struct {
	store  *database.Store
	images upload.ImageStore
}

// NewPostService 创建服务实例
func NewPostService(store *database.Store, images upload.ImageStore) PostService {
	return &postService{store: store, images: images}
}

// CreatePost 创建文章
// 分类必须存在且属于作者；只关联作者自己的标签，其余标签忽略
func (s *postService) CreatePost(ctx context.Context, authorID uint, in *CreatePostInput) (*postModel.Post, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateFields(title, in.Content, in.Summary); err != nil {
		return nil, err
	}
	postSlug := slug.Make(title)
	if postSlug == "" {
		return nil, ErrInvalidSlug
	}

	var post *postModel.Post
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewPostRepository(tx)

		author, err := loadUser(tx, authorID)
		if err != nil {
			return err
		}
		if !author.Can(userModel.PermWrite) {
			return ErrCannotWrite
		}

		if err := checkCategory(repo, in.CategoryID, authorID); err != nil {
			return err
		}

		exists, err := repo.SlugExists(postSlug, 0)
		if err != nil {
			return err
		}
		if exists {
			return response.ErrDuplicateSlug
		}

		post = &postModel.Post{
			Title:       title,
			Slug:        postSlug,
			Summary:     in.Summary,
			Content:     in.Content,
			IsPublished: in.Published,
			UserID:      authorID,
			CategoryID:  in.CategoryID,
		}
		if err := repo.Create(post); err != nil {
			if database.IsDuplicateKey(err) {
				return response.ErrDuplicateSlug
			}
			return err
		}

		tagIDs, err := repo.FilterOwnedTagIDs(authorID, in.TagIDs)
		if err != nil {
			return err
		}
		return repo.ReplaceTags(post.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// EditPost 编辑文章（仅作者），只有标题实际变化时才重新生成 slug
func (s *postService) EditPost(ctx context.Context, actorID, postID uint, in *EditPostInput) (*postModel.Post, error) {
	var post *postModel.Post
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewPostRepository(tx)

		current, err := repo.GetByID(postID)
		if err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if current.UserID != actorID {
			return ErrNotPostOwner
		}

		updates := map[string]interface{}{}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return ErrEmptyTitle
			}
			if title != current.Title {
				newSlug := slug.Make(title)
				if newSlug == "" {
					return ErrInvalidSlug
				}
				exists, err := repo.SlugExists(newSlug, current.ID)
				if err != nil {
					return err
				}
				if exists {
					return response.ErrDuplicateSlug
				}
				updates["title"] = title
				updates["slug"] = newSlug
			}
		}
		if in.Content != nil {
			if strings.TrimSpace(*in.Content) == "" {
				return ErrEmptyContent
			}
			updates["content"] = *in.Content
		}
		if in.Summary != nil {
			if utf8.RuneCountInString(*in.Summary) > postModel.SummaryMaxLen {
				return ErrSummaryTooLong
			}
			updates["summary"] = *in.Summary
		}
		if in.CategoryID != nil && *in.CategoryID != current.CategoryID {
			if err := checkCategory(repo, *in.CategoryID, current.UserID); err != nil {
				return err
			}
			updates["category_id"] = *in.CategoryID
		}
		if in.Published != nil {
			updates["is_published"] = *in.Published
		}
		if in.TagIDs != nil {
			tagIDs, err := repo.FilterOwnedTagIDs(current.UserID, *in.TagIDs)
			if err != nil {
				return err
			}
			if err := repo.ReplaceTags(current.ID, tagIDs); err != nil {
				return err
			}
		}

		if len(updates) > 0 {
			updates["updated_at"] = time.Now()
			if err := repo.Update(current.ID, updates); err != nil {
				if database.IsDuplicateKey(err) {
					return response.ErrDuplicateSlug
				}
				return err
			}
		}

		post, err = repo.GetByID(current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// SetCover 更换封面：先写文件再更新记录，事务失败时删除新文件，成功后删除旧文件
func (s *postService) SetCover(ctx context.Context, actorID, postID uint, r io.Reader, ext string) (*postModel.Post, error) {
	if s.images == nil {
		return nil, response.InvalidParameterError("未配置图片存储")
	}
	name, err := s.images.Save(r, ext)
	if err != nil {
		return nil, err
	}

	var post *postModel.Post
	var oldCover string
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewPostRepository(tx)

		current, err := repo.GetByID(postID)
		if err != nil {
			return notFound(err, ErrPostNotFound)
		}
		if current.UserID != actorID {
			return ErrNotPostOwner
		}
		oldCover = current.CoverPath

		if err := repo.Update(current.ID, map[string]interface{}{"cover_path": name}); err != nil {
			return err
		}
		current.CoverPath = name
		post = current
		return nil
	})
	if err != nil {
		s.removeImage(name)
		return nil, err
	}

	s.removeImage(oldCover)
	return post, nil
}

// DeletePost 删除文章，级联删除评论、标签关联与收藏
// 作者或管理员可删除；封面文件在事务提交后清理
func (s *postService) DeletePost(ctx context.Context, actorID, postID uint) error {
	var coverPath string
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewPostRepository(tx)

		post, err := loadPostForOwner(tx, repo, actorID, postID)
		if err != nil {
			return err
		}
		coverPath = post.CoverPath
		return repo.DeleteCascade([]uint{post.ID})
	})
	if err != nil {
		return err
	}

	s.removeImage(coverPath)
	return nil
}

// IncrementView 浏览量原子加一
func (s *postService) IncrementView(ctx context.Context, postID uint) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		affected, err := NewPostRepository(tx).IncrementViewCount(postID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

func (s *postService) GetByID(ctx context.Context, postID uint) (*postModel.Post, error) {
	post, err := NewPostRepository(s.store.DB(ctx)).GetByID(postID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return post, nil
}

// GetBySlug 文章详情；草稿只对作者和管理员可见
func (s *postService) GetBySlug(ctx context.Context, postSlug string, viewerID uint) (*PostDetail, error) {
	db := s.store.DB(ctx)
	repo := NewPostRepository(db)

	post, err := repo.GetBySlug(postSlug)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	if !post.IsPublished && post.UserID != viewerID && !isAdmin(db, viewerID) {
		return nil, ErrPostNotFound
	}

	summary, err := repo.GetSummary(post.ID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	tags, err := repo.GetTags(post.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "查询文章标签失败")
	}
	return &PostDetail{PostSummary: *summary, Tags: tags}, nil
}

// ListPublished 已发布文章，按时间或浏览量排序
func (s *postService) ListPublished(ctx context.Context, q ListQuery) (*PostPage, error) {
	return s.list(ctx, ListFilter{PublishedOnly: true}, q)
}

func (s *postService) ListByCategory(ctx context.Context, categoryID uint, q ListQuery) (*PostPage, error) {
	return s.list(ctx, ListFilter{PublishedOnly: true, CategoryID: categoryID}, q)
}

func (s *postService) ListByTag(ctx context.Context, tagID uint, q ListQuery) (*PostPage, error) {
	return s.list(ctx, ListFilter{PublishedOnly: true, TagID: tagID}, q)
}

// ListByAuthor 作者本人可以看到自己的草稿
func (s *postService) ListByAuthor(ctx context.Context, authorID, viewerID uint, q ListQuery) (*PostPage, error) {
	return s.list(ctx, ListFilter{PublishedOnly: authorID != viewerID, AuthorID: authorID}, q)
}

// Search 按标题或作者用户名模糊匹配（不区分大小写）
func (s *postService) Search(ctx context.Context, keyword string, q ListQuery) (*PostPage, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		q = q.Normalize()
		return &PostPage{Items: []PostSummary{}, Page: q.Page, PageSize: q.PageSize}, nil
	}
	return s.list(ctx, ListFilter{PublishedOnly: true, Keyword: keyword}, q)
}

func (s *postService) Popular(ctx context.Context, limit int) ([]PostSummary, error) {
	page, err := s.list(ctx, ListFilter{PublishedOnly: true}, ListQuery{Page: 1, PageSize: limit, Order: OrderPopular})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *postService) Related(ctx context.Context, postID uint, limit int) ([]PostSummary, error) {
	repo := NewPostRepository(s.store.DB(ctx))
	post, err := repo.GetByID(postID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	if limit < 1 {
		limit = 5
	}
	items, err := repo.Related(post, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "查询相关文章失败")
	}
	return items, nil
}

func (s *postService) TagsOf(ctx context.Context, postID uint) ([]postModel.Tag, error) {
	tags, err := NewPostRepository(s.store.DB(ctx)).GetTags(postID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "查询文章标签失败")
	}
	return tags, nil
}

// ========== 辅助方法 ==========

func (s *postService) list(ctx context.Context, f ListFilter, q ListQuery) (*PostPage, error) {
	q = q.Normalize()
	f.Order = q.Order
	f.Offset = q.Offset()
	f.Limit = q.PageSize

	items, total, err := NewPostRepository(s.store.DB(ctx)).List(f)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询文章列表失败"))
	}
	return &PostPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *postService) removeImage(name string) {
	if s.images == nil || name == "" {
		return
	}
	if err := s.images.Remove(name); err != nil {
		logger.Log.WithError(err).WithField("file", name).Warn("删除图片失败")
	}
}

func validateFields(title, content, summary string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(summary) > postModel.SummaryMaxLen {
		return ErrSummaryTooLong
	}
	return nil
}

// checkCategory 分类必须存在且属于 ownerID
func checkCategory(repo *PostRepository, categoryID, ownerID uint) error {
	category, err := repo.GetCategory(categoryID)
	if err != nil {
		return notFound(err, response.ErrInvalidCategory)
	}
	if category.UserID != ownerID {
		return response.ErrInvalidCategory
	}
	return nil
}

// loadPostForOwner 加载文章并校验操作者为作者或管理员
func loadPostForOwner(tx *gorm.DB, repo *PostRepository, actorID, postID uint) (*postModel.Post, error) {
	post, err := repo.GetByID(postID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	if post.UserID == actorID {
		return post, nil
	}
	actor, err := loadUser(tx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdministrator() {
		return nil, ErrNotPostOwner
	}
	return post, nil
}

func loadUser(db *gorm.DB, id uint) (*userModel.User, error) {
	var u userModel.User
	if err := db.First(&u, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func isAdmin(db *gorm.DB, id uint) bool {
	if id == 0 {
		return false
	}
	u, err := loadUser(db, id)
	return err == nil && u.IsAdministrator()
}

// notFound 把 gorm.ErrRecordNotFound 转为业务错误，其余错误原样返回
func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
