package taxonomy

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	postModel "terminal-terrace/sse-blog/internal/model/post"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/internal/slug"
	"terminal-terrace/sse-blog/packages/response"
)

var (
	ErrCategoryNotFound = response.NotFoundError("分类")
	ErrTagNotFound      = response.NotFoundError("标签")
	ErrOwnerNotFound    = response.NotFoundError("用户")
	ErrEmptyName        = response.InvalidParameterError("名称不能为空")
	ErrInvalidSlug      = response.InvalidParameterError("名称无法生成有效的 slug")
	ErrCategoryExists   = response.DuplicateNameError("分类名已存在")
	ErrTagExists        = response.DuplicateNameError("标签名已存在")
	ErrCategoryInUse    = response.InUseError("分类下仍有文章，无法删除")
	ErrTagInUse         = response.InUseError("标签仍被文章使用，无法删除")
	ErrNotOwner         = response.ForbiddenError("只能操作自己创建的分类或标签")
)

type TaxonomyService interface {
	CreateCategory(ctx context.Context, ownerID uint, in CategoryInput) (*postModel.Category, error)
	UpdateCategory(ctx context.Context, actorID, id uint, in CategoryInput) (*postModel.Category, error)
	DeleteCategory(ctx context.Context, actorID, id uint) error
	GetCategoryBySlug(ctx context.Context, slug string) (*postModel.Category, error)
	ListCategories(ctx context.Context) ([]CategoryWithCount, error)
	ListCategoriesByOwner(ctx context.Context, ownerID uint) ([]CategoryWithCount, error)

	CreateTag(ctx context.Context, ownerID uint, in TagInput) (*postModel.Tag, error)
	UpdateTag(ctx context.Context, actorID, id uint, in TagInput) (*postModel.Tag, error)
	DeleteTag(ctx context.Context, actorID, id uint) error
	GetTagBySlug(ctx context.Context, slug string) (*postModel.Tag, error)
	ListTags(ctx context.Context) ([]TagWithCount, error)
	ListTagsByOwner(ctx context.Context, ownerID uint) ([]TagWithCount, error)
}

type taxonomyService struct {
	store *database.Store
}

func NewTaxonomyService(store *database.Store) TaxonomyService {
	return &taxonomyService{store: store}
}

// ========== 分类 ==========

// CreateCategory 创建分类
// 名称与 slug 在事务内检查唯一性，唯一索引兜底并发插入
func (s *taxonomyService) CreateCategory(ctx context.Context, ownerID uint, in CategoryInput) (*postModel.Category, error) {
	name, catSlug, err := nameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}

	var category *postModel.Category
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewTaxonomyRepository(tx)

		if _, err := loadUser(tx, ownerID); err != nil {
			return err
		}
		if err := checkUnique(repo.CategoryNameExists, repo.CategorySlugExists, name, catSlug, 0, ErrCategoryExists); err != nil {
			return err
		}

		category = &postModel.Category{
			Name:        name,
			Slug:        catSlug,
			Description: strings.TrimSpace(in.Description),
			UserID:      ownerID,
		}
		if err := repo.CreateCategory(category); err != nil {
			if database.IsDuplicateKey(err) {
				return ErrCategoryExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory 修改分类，只有名称变化时才重新生成 slug
func (s *taxonomyService) UpdateCategory(ctx context.Context, actorID, id uint, in CategoryInput) (*postModel.Category, error) {
	name, catSlug, err := nameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}

	var category *postModel.Category
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewTaxonomyRepository(tx)

		current, err := repo.GetCategory(id)
		if err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if err := checkOwner(tx, actorID, current.UserID); err != nil {
			return err
		}

		updates := map[string]interface{}{"description": strings.TrimSpace(in.Description)}
		if name != current.Name {
			if err := checkUnique(repo.CategoryNameExists, repo.CategorySlugExists, name, catSlug, current.ID, ErrCategoryExists); err != nil {
				return err
			}
			updates["name"] = name
			updates["slug"] = catSlug
		}
		if err := repo.UpdateCategory(current.ID, updates); err != nil {
			if database.IsDuplicateKey(err) {
				return ErrCategoryExists
			}
			return err
		}

		category, err = repo.GetCategory(current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory 删除分类，仍有文章时返回 InUse
func (s *taxonomyService) DeleteCategory(ctx context.Context, actorID, id uint) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewTaxonomyRepository(tx)

		// 排他锁与 CreatePost/EditPost 中的共享锁互斥，计数之后不会再有新文章引用它
		category, err := repo.LockCategory(id)
		if err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if err := checkOwner(tx, actorID, category.UserID); err != nil {
			return err
		}

		count, err := repo.CountCategoryPosts(category.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}
		return repo.DeleteCategory(category.ID)
	})
}

func (s *taxonomyService) GetCategoryBySlug(ctx context.Context, catSlug string) (*postModel.Category, error) {
	category, err := NewTaxonomyRepository(s.store.DB(ctx)).GetCategoryBySlug(catSlug)
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	return category, nil
}

func (s *taxonomyService) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	return s.ListCategoriesByOwner(ctx, 0)
}

func (s *taxonomyService) ListCategoriesByOwner(ctx context.Context, ownerID uint) ([]CategoryWithCount, error) {
	items, err := NewTaxonomyRepository(s.store.DB(ctx)).ListCategories(ownerID)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询分类列表失败"))
	}
	return items, nil
}

// ========== 标签 ==========

func (s *taxonomyService) CreateTag(ctx context.Context, ownerID uint, in TagInput) (*postModel.Tag, error) {
	name, tagSlug, err := nameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}

	var tag *postModel.Tag
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewTaxonomyRepository(tx)

		if _, err := loadUser(tx, ownerID); err != nil {
			return err
		}
		if err := checkUnique(repo.TagNameExists, repo.TagSlugExists, name, tagSlug, 0, ErrTagExists); err != nil {
			return err
		}

		tag = &postModel.Tag{Name: name, Slug: tagSlug, UserID: ownerID}
		if err := repo.CreateTag(tag); err != nil {
			if database.IsDuplicateKey(err) {
				return ErrTagExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *taxonomyService) UpdateTag(ctx context.Context, actorID, id uint, in TagInput) (*postModel.Tag, error) {
	name, tagSlug, err := nameAndSlug(in.Name)
	if err != nil {
		return nil, err
	}

	var tag *postModel.Tag
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewTaxonomyRepository(tx)

		current, err := repo.GetTag(id)
		if err != nil {
			return notFound(err, ErrTagNotFound)
		}
		if err := checkOwner(tx, actorID, current.UserID); err != nil {
			return err
		}

		tag = current
		if name == current.Name {
			return nil
		}
		if err := checkUnique(repo.TagNameExists, repo.TagSlugExists, name, tagSlug, current.ID, ErrTagExists); err != nil {
			return err
		}
		if err := repo.UpdateTag(current.ID, map[string]interface{}{"name": name, "slug": tagSlug}); err != nil {
			if database.IsDuplicateKey(err) {
				return ErrTagExists
			}
			return err
		}
		tag.Name, tag.Slug = name, tagSlug
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag 删除标签，仍被文章使用时返回 InUse
func (s *taxonomyService) DeleteTag(ctx context.Context, actorID, id uint) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		repo := NewTaxonomyRepository(tx)

		tag, err := repo.LockTag(id)
		if err != nil {
			return notFound(err, ErrTagNotFound)
		}
		if err := checkOwner(tx, actorID, tag.UserID); err != nil {
			return err
		}

		count, err := repo.CountTagPosts(tag.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrTagInUse
		}
		return repo.DeleteTag(tag.ID)
	})
}

func (s *taxonomyService) GetTagBySlug(ctx context.Context, tagSlug string) (*postModel.Tag, error) {
	tag, err := NewTaxonomyRepository(s.store.DB(ctx)).GetTagBySlug(tagSlug)
	if err != nil {
		return nil, notFound(err, ErrTagNotFound)
	}
	return tag, nil
}

func (s *taxonomyService) ListTags(ctx context.Context) ([]TagWithCount, error) {
	return s.ListTagsByOwner(ctx, 0)
}

func (s *taxonomyService) ListTagsByOwner(ctx context.Context, ownerID uint) ([]TagWithCount, error) {
	items, err := NewTaxonomyRepository(s.store.DB(ctx)).ListTags(ownerID)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询标签列表失败"))
	}
	return items, nil
}

// ========== 辅助方法 ==========

func nameAndSlug(raw string) (string, string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", "", ErrEmptyName
	}
	s := slug.Make(name)
	if s == "" {
		return "", "", ErrInvalidSlug
	}
	return name, s, nil
}

// checkUnique 名称冲突返回 nameErr，slug 冲突返回 DuplicateSlug
func checkUnique(nameExists, slugExists func(string, uint) (bool, error), name, s string, excludeID uint, nameErr error) error {
	exists, err := nameExists(name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return nameErr
	}
	exists, err = slugExists(s, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return response.ErrDuplicateSlug
	}
	return nil
}

// checkOwner 所有者或管理员可以修改
func checkOwner(tx *gorm.DB, actorID, ownerID uint) error {
	if actorID == ownerID {
		return nil
	}
	actor, err := loadUser(tx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdministrator() {
		return ErrNotOwner
	}
	return nil
}

func loadUser(db *gorm.DB, id uint) (*userModel.User, error) {
	var u userModel.User
	if err := db.First(&u, id).Error; err != nil {
		return nil, notFound(err, ErrOwnerNotFound)
	}
	return &u, nil
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
