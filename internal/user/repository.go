package user

import (
	"gorm.io/gorm"

	commentModel "terminal-terrace/sse-blog/internal/model/comment"
	postModel "terminal-terrace/sse-blog/internal/model/post"
	userModel "terminal-terrace/sse-blog/internal/model/user"
)

// UserRepository 用户数据访问层
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库实例，db 可以是事务
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id uint) (*userModel.User, error) {
	var u userModel.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*userModel.User, error) {
	var u userModel.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*userModel.User, error) {
	var u userModel.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByLogin 按用户名或邮箱查找
func (r *UserRepository) FindByLogin(login string) (*userModel.User, error) {
	var u userModel.User
	if err := r.db.Where("username = ? OR email = ?", login, login).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) exists(column, value string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&userModel.User{}).Where(column+" = ?", value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UsernameExists(username string, excludeID uint) (bool, error) {
	return r.exists("username", username, excludeID)
}

func (r *UserRepository) EmailExists(email string, excludeID uint) (bool, error) {
	return r.exists("email", email, excludeID)
}

func (r *UserRepository) Create(u *userModel.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&userModel.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *UserRepository) Delete(id uint) error {
	return r.db.Delete(&userModel.User{}, id).Error
}

// List 按注册时间倒序分页，附带文章数
func (r *UserRepository) List(offset, limit int) ([]AdminUser, int64, error) {
	var total int64
	if err := r.db.Model(&userModel.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []userModel.User
	if err := r.db.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := r.postCounts(ids)
	if err != nil {
		return nil, 0, err
	}

	items := make([]AdminUser, 0, len(users))
	for _, u := range users {
		items = append(items, AdminUser{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			IsAdmin:   u.IsAdmin,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
			LastSeen:  u.LastSeen,
			PostCount: counts[u.ID],
		})
	}
	return items, total, nil
}

func (r *UserRepository) postCounts(userIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		UserID uint
		Count  int64
	}
	if err := r.db.Model(&postModel.Post{}).
		Select("user_id, COUNT(*) AS count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}

// ===== 统计 =====

// PostStats 文章数、已发布数与总阅读量
func (r *UserRepository) PostStats(userID uint) (total, published, views int64, err error) {
	var row struct {
		Total     int64
		Published int64
		Views     int64
	}
	err = r.db.Model(&postModel.Post{}).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN is_published THEN 1 ELSE 0 END), 0) AS published, "+
			"COALESCE(SUM(view_count), 0) AS views").
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Total, row.Published, row.Views, err
}

func (r *UserRepository) CountComments(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&commentModel.Comment{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *UserRepository) SiteStats() (*SiteStats, error) {
	stats := &SiteStats{}
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&userModel.User{}, &stats.Users},
		{&postModel.Post{}, &stats.Posts},
		{&commentModel.Comment{}, &stats.Comments},
		{&postModel.Category{}, &stats.Categories},
		{&postModel.Tag{}, &stats.Tags},
	}
	for _, c := range counts {
		if err := r.db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// ===== 删除用户时的分类与标签处理 =====

// CategoriesUsedByOthers 用户的分类中仍被其他作者文章引用的分类名
func (r *UserRepository) CategoriesUsedByOthers(userID uint) ([]string, error) {
	var names []string
	err := r.db.Model(&postModel.Category{}).
		Where("user_id = ?", userID).
		Where("id IN (?)", r.db.Model(&postModel.Post{}).Select("category_id").Where("user_id <> ?", userID)).
		Order("name").
		Pluck("name", &names).Error
	return names, err
}

func (r *UserRepository) DeleteCategoriesOf(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&postModel.Category{}).Error
}

// DeleteUnusedTagsOf 删除用户未被任何文章引用的标签，仍被其他作者使用的标签保留
func (r *UserRepository) DeleteUnusedTagsOf(userID uint) error {
	return r.db.Where("user_id = ?", userID).
		Where("id NOT IN (?)", r.db.Model(&postModel.PostTag{}).Select("tag_id")).
		Delete(&postModel.Tag{}).Error
}
