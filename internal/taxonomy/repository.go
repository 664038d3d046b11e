package taxonomy

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	postModel "terminal-terrace/sse-blog/internal/model/post"
)

// TaxonomyRepository 分类与标签仓储
type TaxonomyRepository struct {
	db *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// exists 检查 model 对应表中 column = value 的记录是否存在（排除 excludeID）
func (r *TaxonomyRepository) exists(model interface{}, column, value string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(model).Where(column+" = ?", value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ===== Category =====

func (r *TaxonomyRepository) GetCategory(id uint) (*postModel.Category, error) {
	var c postModel.Category
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LockCategory 以排他锁读取分类，用于删除前的引用检查
func (r *TaxonomyRepository) LockCategory(id uint) (*postModel.Category, error) {
	var c postModel.Category
	if err := r.db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *TaxonomyRepository) GetCategoryBySlug(slug string) (*postModel.Category, error) {
	var c postModel.Category
	if err := r.db.Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *TaxonomyRepository) CategoryNameExists(name string, excludeID uint) (bool, error) {
	return r.exists(&postModel.Category{}, "name", name, excludeID)
}

func (r *TaxonomyRepository) CategorySlugExists(slug string, excludeID uint) (bool, error) {
	return r.exists(&postModel.Category{}, "slug", slug, excludeID)
}

func (r *TaxonomyRepository) CreateCategory(c *postModel.Category) error {
	return r.db.Create(c).Error
}

func (r *TaxonomyRepository) UpdateCategory(id uint, updates map[string]interface{}) error {
	return r.db.Model(&postModel.Category{}).Where("id = ?", id).Updates(updates).Error
}

func (r *TaxonomyRepository) DeleteCategory(id uint) error {
	return r.db.Delete(&postModel.Category{}, id).Error
}

// CountCategoryPosts 分类下的文章数（含草稿）
func (r *TaxonomyRepository) CountCategoryPosts(id uint) (int64, error) {
	var count int64
	err := r.db.Model(&postModel.Post{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// ListCategories 分类列表及已发布文章数，ownerID 为 0 时返回全部
func (r *TaxonomyRepository) ListCategories(ownerID uint) ([]CategoryWithCount, error) {
	query := r.db.Model(&postModel.Category{}).
		Select("category.*, COUNT(p.id) AS post_count").
		Joins("LEFT JOIN post p ON p.category_id = category.id AND p.is_published = ?", true).
		Group("category.id").
		Order("category.name")
	if ownerID != 0 {
		query = query.Where("category.user_id = ?", ownerID)
	}
	items := []CategoryWithCount{}
	err := query.Scan(&items).Error
	return items, err
}

// ===== Tag =====

func (r *TaxonomyRepository) GetTag(id uint) (*postModel.Tag, error) {
	var t postModel.Tag
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// LockTag 以排他锁读取标签
func (r *TaxonomyRepository) LockTag(id uint) (*postModel.Tag, error) {
	var t postModel.Tag
	if err := r.db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaxonomyRepository) GetTagBySlug(slug string) (*postModel.Tag, error) {
	var t postModel.Tag
	if err := r.db.Where("slug = ?", slug).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaxonomyRepository) TagNameExists(name string, excludeID uint) (bool, error) {
	return r.exists(&postModel.Tag{}, "name", name, excludeID)
}

func (r *TaxonomyRepository) TagSlugExists(slug string, excludeID uint) (bool, error) {
	return r.exists(&postModel.Tag{}, "slug", slug, excludeID)
}

func (r *TaxonomyRepository) CreateTag(t *postModel.Tag) error {
	return r.db.Create(t).Error
}

func (r *TaxonomyRepository) UpdateTag(id uint, updates map[string]interface{}) error {
	return r.db.Model(&postModel.Tag{}).Where("id = ?", id).Updates(updates).Error
}

func (r *TaxonomyRepository) DeleteTag(id uint) error {
	return r.db.Delete(&postModel.Tag{}, id).Error
}

// CountTagPosts 使用该标签的文章数（含草稿）
func (r *TaxonomyRepository) CountTagPosts(id uint) (int64, error) {
	var count int64
	err := r.db.Model(&postModel.PostTag{}).Where("tag_id = ?", id).Count(&count).Error
	return count, err
}

// ListTags 标签列表，按已发布文章数降序
func (r *TaxonomyRepository) ListTags(ownerID uint) ([]TagWithCount, error) {
	query := r.db.Model(&postModel.Tag{}).
		Select("tag.*, COUNT(p.id) AS post_count").
		Joins("LEFT JOIN post_tags pt ON pt.tag_id = tag.id").
		Joins("LEFT JOIN post p ON p.id = pt.post_id AND p.is_published = ?", true).
		Group("tag.id").
		Order("post_count DESC, tag.name")
	if ownerID != 0 {
		query = query.Where("tag.user_id = ?", ownerID)
	}
	items := []TagWithCount{}
	err := query.Scan(&items).Error
	return items, err
}
