package social

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	postModel "terminal-terrace/sse-blog/internal/model/post"
	userModel "terminal-terrace/sse-blog/internal/model/user"
)

// SocialRepository 关注与收藏关系仓储
type SocialRepository struct {
	db *gorm.DB
}

func NewSocialRepository(db *gorm.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// ===== 关注 =====

// IsFollowing 主键探测
func (r *SocialRepository) IsFollowing(followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.Model(&userModel.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

// InsertFollow 插入关注关系，已存在时不报错，返回是否实际插入
func (r *SocialRepository) InsertFollow(followerID, followedID uint) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&userModel.Follow{FollowerID: followerID, FollowedID: followedID})
	return result.RowsAffected == 1, result.Error
}

// DeleteFollow 返回是否实际删除
func (r *SocialRepository) DeleteFollow(followerID, followedID uint) (bool, error) {
	result := r.db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&userModel.Follow{})
	return result.RowsAffected > 0, result.Error
}

func (r *SocialRepository) CountFollowers(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&userModel.Follow{}).Where("followed_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *SocialRepository) CountFollowing(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&userModel.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

// ListFollowers 关注 userID 的用户，最近关注的在前
func (r *SocialRepository) ListFollowers(userID uint, offset, limit int) ([]UserBrief, error) {
	return r.listEdges("followers.follower_id", "followers.followed_id = ?", userID, offset, limit)
}

// ListFollowing userID 关注的用户，最近关注的在前
func (r *SocialRepository) ListFollowing(userID uint, offset, limit int) ([]UserBrief, error) {
	return r.listEdges("followers.followed_id", "followers.follower_id = ?", userID, offset, limit)
}

func (r *SocialRepository) listEdges(joinColumn, where string, userID uint, offset, limit int) ([]UserBrief, error) {
	items := []UserBrief{}
	err := r.db.Model(&userModel.Follow{}).
		Select(`u.id, u.username, u.bio, u.avatar_path, followers.timestamp AS since`).
		Joins(`JOIN "user" u ON u.id = `+joinColumn).
		Where(where, userID).
		Order("followers.timestamp DESC, u.id").
		Offset(offset).
		Limit(limit).
		Scan(&items).Error
	return items, err
}

// DeleteFollowsOf 删除用户作为任一方的全部关注关系
func (r *SocialRepository) DeleteFollowsOf(userID uint) error {
	return r.db.Where("follower_id = ? OR followed_id = ?", userID, userID).
		Delete(&userModel.Follow{}).Error
}

// ===== 收藏 =====

func (r *SocialRepository) IsFavorited(userID, postID uint) (bool, error) {
	var count int64
	err := r.db.Model(&postModel.Favorite{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *SocialRepository) InsertFavorite(userID, postID uint) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&postModel.Favorite{UserID: userID, PostID: postID})
	return result.RowsAffected == 1, result.Error
}

func (r *SocialRepository) DeleteFavorite(userID, postID uint) (bool, error) {
	result := r.db.Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&postModel.Favorite{})
	return result.RowsAffected > 0, result.Error
}

func (r *SocialRepository) CountFavorites(postID uint) (int64, error) {
	var count int64
	err := r.db.Model(&postModel.Favorite{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func (r *SocialRepository) CountFavoritesByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&postModel.Favorite{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteFavoritesOf 删除用户的全部收藏
func (r *SocialRepository) DeleteFavoritesOf(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&postModel.Favorite{}).Error
}
