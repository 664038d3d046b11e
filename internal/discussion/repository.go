package discussion

import (
	"gorm.io/gorm"

	commentModel "terminal-terrace/sse-blog/internal/model/comment"
)

// DiscussionRepository 评论数据访问接口
type DiscussionRepository interface {
	FindCommentByID(commentID uint) (*commentModel.Comment, error)
	FindTopLevelByPost(postID uint) ([]commentModel.Comment, error)
	FindReplies(parentID uint) ([]commentModel.Comment, error)
	CountReplies(parentIDs []uint) (map[uint]int64, error)
	CountByPost(postID uint) (int64, error)
	CreateComment(comment *commentModel.Comment) error
	SetApproved(commentID uint, approved bool) error
	DescendantIDs(commentID uint) ([]uint, error)
	DeleteComments(ids []uint) error
	IDsByAuthor(userID uint) ([]uint, error)
}

// discussionRepository 实现
type discussionRepository struct {
	db *gorm.DB
}

// NewDiscussionRepository 创建 Repository 实例
// 事务内传入 tx
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

func (r *discussionRepository) FindCommentByID(commentID uint) (*commentModel.Comment, error) {
	var comment commentModel.Comment
	if err := r.db.First(&comment, commentID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindTopLevelByPost 已审核的顶级评论，新的在前
func (r *discussionRepository) FindTopLevelByPost(postID uint) ([]commentModel.Comment, error) {
	comments := []commentModel.Comment{}
	err := r.db.Where("post_id = ? AND parent_id IS NULL AND is_approved = ?", postID, true).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// FindReplies 已审核的直接回复，按时间升序
func (r *discussionRepository) FindReplies(parentID uint) ([]commentModel.Comment, error) {
	comments := []commentModel.Comment{}
	err := r.db.Where("parent_id = ? AND is_approved = ?", parentID, true).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// CountReplies 每条评论已审核的直接回复数
func (r *discussionRepository) CountReplies(parentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ParentID uint
		Count    int64
	}
	err := r.db.Model(&commentModel.Comment{}).
		Select("parent_id, COUNT(*) AS count").
		Where("parent_id IN ? AND is_approved = ?", parentIDs, true).
		Group("parent_id").
		Scan(&rows).Error
	for _, row := range rows {
		counts[row.ParentID] = row.Count
	}
	return counts, err
}

// CountByPost 文章已审核评论数（包括回复）
func (r *discussionRepository) CountByPost(postID uint) (int64, error) {
	var count int64
	err := r.db.Model(&commentModel.Comment{}).
		Where("post_id = ? AND is_approved = ?", postID, true).
		Count(&count).Error
	return count, err
}

func (r *discussionRepository) CreateComment(comment *commentModel.Comment) error {
	return r.db.Create(comment).Error
}

func (r *discussionRepository) SetApproved(commentID uint, approved bool) error {
	return r.db.Model(&commentModel.Comment{}).
		Where("id = ?", commentID).
		Update("is_approved", approved).Error
}

// DescendantIDs 评论自身及其全部后代ID
func (r *discussionRepository) DescendantIDs(commentID uint) ([]uint, error) {
	ids := []uint{commentID}
	frontier := []uint{commentID}
	for len(frontier) > 0 {
		var children []uint
		if err := r.db.Model(&commentModel.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

func (r *discussionRepository) DeleteComments(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&commentModel.Comment{}).Error
}

// IDsByAuthor 用户发表的全部评论ID
func (r *discussionRepository) IDsByAuthor(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&commentModel.Comment{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}
