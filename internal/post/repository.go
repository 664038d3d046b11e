package post

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	commentModel "terminal-terrace/sse-blog/internal/model/comment"
	notificationModel "terminal-terrace/sse-blog/internal/model/notification"
	postModel "terminal-terrace/sse-blog/internal/model/post"
)

// PostRepository 文章仓储层
// 事务内用 NewPostRepository(tx) 创建，保证所有语句落在同一事务
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// ===== Post 基础操作 =====

func (r *PostRepository) GetByID(id uint) (*postModel.Post, error) {
	var p postModel.Post
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) GetBySlug(slug string) (*postModel.Post, error) {
	var p postModel.Post
	if err := r.db.Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) Create(p *postModel.Post) error {
	return r.db.Create(p).Error
}

func (r *PostRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&postModel.Post{}).Where("id = ?", id).Updates(updates).Error
}

// SlugExists 检查 slug 是否被其他文章占用
func (r *PostRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&postModel.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// IncrementViewCount 单条 UPDATE 原子自增，返回受影响行数
func (r *PostRepository) IncrementViewCount(id uint) (int64, error) {
	result := r.db.Model(&postModel.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	return result.RowsAffected, result.Error
}

// ===== 分类与标签 =====

// GetCategory 以共享锁读取分类，事务提交前并发的删除会被阻塞
func (r *PostRepository) GetCategory(id uint) (*postModel.Category, error) {
	var c postModel.Category
	if err := r.db.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FilterOwnedTagIDs 过滤出存在且属于 ownerID 的标签，命中的行加共享锁
func (r *PostRepository) FilterOwnedTagIDs(ownerID uint, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var owned []uint
	err := r.db.Model(&postModel.Tag{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
		Where("id IN ? AND user_id = ?", ids, ownerID).
		Order("id").
		Pluck("id", &owned).Error
	return owned, err
}

// ReplaceTags 用 tagIDs 整体替换文章的标签
func (r *PostRepository) ReplaceTags(postID uint, tagIDs []uint) error {
	if err := r.db.Where("post_id = ?", postID).Delete(&postModel.PostTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]postModel.PostTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, postModel.PostTag{PostID: postID, TagID: id})
	}
	return r.db.Create(&rows).Error
}

func (r *PostRepository) GetTags(postID uint) ([]postModel.Tag, error) {
	var tags []postModel.Tag
	err := r.db.Joins("JOIN post_tags ON post_tags.tag_id = tag.id").
		Where("post_tags.post_id = ?", postID).
		Order("tag.name").
		Find(&tags).Error
	return tags, err
}

// ===== 级联删除 =====

// DeleteCascade 删除文章及其评论、标签关联、收藏，并解除通知对它们的引用
// 作者与标签实体本身保留
func (r *PostRepository) DeleteCascade(postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}

	commentIDs := r.db.Model(&commentModel.Comment{}).Select("id").Where("post_id IN ?", postIDs)
	if err := r.db.Model(&notificationModel.Notification{}).
		Where("post_id IN ? OR comment_id IN (?)", postIDs, commentIDs).
		Updates(map[string]interface{}{"post_id": nil, "comment_id": nil}).Error; err != nil {
		return err
	}

	if err := r.db.Where("post_id IN ?", postIDs).Delete(&commentModel.Comment{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("post_id IN ?", postIDs).Delete(&postModel.PostTag{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("post_id IN ?", postIDs).Delete(&postModel.Favorite{}).Error; err != nil {
		return err
	}
	return r.db.Where("id IN ?", postIDs).Delete(&postModel.Post{}).Error
}

// IDsByAuthor 作者的全部文章ID
func (r *PostRepository) IDsByAuthor(authorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&postModel.Post{}).Where("user_id = ?", authorID).Pluck("id", &ids).Error
	return ids, err
}

// CoverPaths 文章封面文件名，删除后用于清理文件
func (r *PostRepository) CoverPaths(postIDs []uint) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var paths []string
	err := r.db.Model(&postModel.Post{}).
		Where("id IN ? AND cover_path <> ''", postIDs).
		Pluck("cover_path", &paths).Error
	return paths, err
}

// ===== 查询 =====

// ListFilter 列表查询条件，零值字段不参与过滤
type ListFilter struct {
	PublishedOnly bool
	CategoryID    uint
	TagID         uint
	AuthorID      uint
	FollowedBy    uint // 关注者ID：只返回其关注的作者的文章
	FavoritedBy   uint // 只返回该用户收藏的文章
	Keyword       string
	Order         string
	Offset        int
	Limit         int
}

const summaryColumns = "post.*, u.username AS author_name, c.name AS category_name"

func (r *PostRepository) filtered(f ListFilter) *gorm.DB {
	query := r.db.Model(&postModel.Post{}).
		Joins(`JOIN "user" u ON u.id = post.user_id`).
		Joins("LEFT JOIN category c ON c.id = post.category_id")

	if f.PublishedOnly {
		query = query.Where("post.is_published = ?", true)
	}
	if f.CategoryID != 0 {
		query = query.Where("post.category_id = ?", f.CategoryID)
	}
	if f.TagID != 0 {
		query = query.Where("post.id IN (?)",
			r.db.Model(&postModel.PostTag{}).Select("post_id").Where("tag_id = ?", f.TagID))
	}
	if f.AuthorID != 0 {
		query = query.Where("post.user_id = ?", f.AuthorID)
	}
	if f.FollowedBy != 0 {
		query = query.Where("post.user_id IN (?)",
			r.db.Table("followers").Select("followed_id").Where("follower_id = ?", f.FollowedBy))
	}
	if f.FavoritedBy != 0 {
		query = query.Where("post.id IN (?)",
			r.db.Model(&postModel.Favorite{}).Select("post_id").Where("user_id = ?", f.FavoritedBy))
	}
	if f.Keyword != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Keyword)) + "%"
		query = query.Where(`(LOWER(post.title) LIKE ? ESCAPE '\' OR LOWER(u.username) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

// List 分页查询文章摘要，返回当前页与总数
func (r *PostRepository) List(f ListFilter) ([]PostSummary, int64, error) {
	var total int64
	if err := r.filtered(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := []PostSummary{}
	err := r.filtered(f).
		Select(summaryColumns).
		Order(orderClause(f.Order)).
		Offset(f.Offset).
		Limit(f.Limit).
		Scan(&items).Error
	return items, total, err
}

// Related 同分类、同作者或有共同标签的已发布文章
func (r *PostRepository) Related(p *postModel.Post, limit int) ([]PostSummary, error) {
	sharedTags := r.db.Model(&postModel.PostTag{}).Select("post_id").
		Where("tag_id IN (?)", r.db.Model(&postModel.PostTag{}).Select("tag_id").Where("post_id = ?", p.ID))

	items := []PostSummary{}
	err := r.filtered(ListFilter{PublishedOnly: true}).
		Where("post.id <> ?", p.ID).
		Where("(post.category_id = ? OR post.user_id = ? OR post.id IN (?))", p.CategoryID, p.UserID, sharedTags).
		Select(summaryColumns).
		Order(orderClause(OrderRecent)).
		Limit(limit).
		Scan(&items).Error
	return items, err
}

// GetSummary 单篇文章摘要（带作者名、分类名）
func (r *PostRepository) GetSummary(id uint) (*PostSummary, error) {
	var item PostSummary
	result := r.filtered(ListFilter{}).Where("post.id = ?", id).Select(summaryColumns).Limit(1).Scan(&item)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func orderClause(order string) string {
	if order == OrderPopular {
		return "post.view_count DESC, post.id DESC"
	}
	return "post.created_at DESC, post.id DESC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
