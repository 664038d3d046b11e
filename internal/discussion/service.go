package discussion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	"terminal-terrace/sse-blog/internal/logger"
	commentModel "terminal-terrace/sse-blog/internal/model/comment"
	notificationModel "terminal-terrace/sse-blog/internal/model/notification"
	postModel "terminal-terrace/sse-blog/internal/model/post"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/internal/notification"
	"terminal-terrace/sse-blog/packages/email"
	"terminal-terrace/sse-blog/packages/response"
)

var (
	ErrCommentNotFound = response.NotFoundError("评论")
	ErrPostNotFound    = response.NotFoundError("文章")
	ErrUserNotFound    = response.NotFoundError("用户")
	ErrEmptyContent    = response.InvalidParameterError("评论内容不能为空")
	ErrParentMismatch  = response.InvalidParameterError("回复的评论不属于该文章")
	ErrCannotComment   = response.ForbiddenError("没有发表评论的权限")
	ErrNotCommentOwner = response.ForbiddenError("只能删除自己的评论")
	ErrCannotModerate  = response.ForbiddenError("没有管理评论的权限")
)

// DiscussionService 评论服务接口
type DiscussionService interface {
	AddComment(ctx context.Context, postID, authorID uint, req *CreateCommentRequest) (*CommentResponse, error)
	DeleteComment(ctx context.Context, commentID, requesterID uint) error
	AdminDeleteComment(ctx context.Context, actorID, commentID uint) error
	ToggleApproval(ctx context.Context, actorID, commentID uint) (*CommentResponse, error)

	ListForPost(ctx context.Context, postID uint) (*CommentsListResponse, error)
	ListReplies(ctx context.Context, commentID uint) ([]*CommentResponse, error)
	CountForPost(ctx context.Context, postID uint) (int64, error)
}

type discussionService struct {
	store    *database.Store
	notifier notification.NotificationService
	mailer   email.Mailer
	baseURL  string
}

// NewDiscussionService 创建服务实例
// mailer 为 nil 时不发送评论提醒邮件
func NewDiscussionService(store *database.Store, notifier notification.NotificationService, mailer email.Mailer, baseURL string) DiscussionService {
	return &discussionService{
		store:    store,
		notifier: notifier,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// commentMail 事务提交后要发送的提醒邮件
type commentMail struct {
	to   string
	data email.CommentNotificationData
}

// AddComment 发表评论
// 评论者不是文章作者时，在同一事务中给作者写一条通知；邮件在提交后发送
func (s *discussionService) AddComment(ctx context.Context, postID, authorID uint, req *CreateCommentRequest) (*CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var (
		comment   *commentModel.Comment
		author    *userModel.User
		recipient uint
		mail      *commentMail
	)
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		recipient, mail = 0, nil
		repo := NewDiscussionRepository(tx)

		var err error
		author, err = loadUser(tx, authorID)
		if err != nil {
			return err
		}
		if !author.Can(userModel.PermComment) {
			return ErrCannotComment
		}

		var post postModel.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, ErrPostNotFound)
		}

		if req.ParentID != nil {
			parent, err := repo.FindCommentByID(*req.ParentID)
			if err != nil {
				return notFound(err, ErrCommentNotFound)
			}
			if parent.PostID != post.ID {
				return ErrParentMismatch
			}
		}

		comment = &commentModel.Comment{
			Content:    content,
			IsApproved: true,
			PostID:     post.ID,
			UserID:     author.ID,
			ParentID:   req.ParentID,
		}
		if err := repo.CreateComment(comment); err != nil {
			return err
		}

		if author.ID == post.UserID {
			return nil
		}

		if _, err := s.notifier.Create(ctx, tx, notification.Input{
			RecipientID: post.UserID,
			SenderID:    author.ID,
			PostID:      &post.ID,
			CommentID:   &comment.ID,
			Type:        notificationModel.TypeComment,
			Message:     notification.CommentMessage(author.Username, post.Title),
		}); err != nil {
			return err
		}
		recipient = post.UserID

		postAuthor, err := loadUser(tx, post.UserID)
		if err != nil {
			return err
		}
		if postAuthor.NotifyComment && postAuthor.Email != "" {
			mail = &commentMail{
				to: postAuthor.Email,
				data: email.CommentNotificationData{
					Recipient: postAuthor.Username,
					Commenter: author.Username,
					PostTitle: post.Title,
					Content:   content,
					PostURL:   fmt.Sprintf("%s/posts/%s", s.baseURL, post.Slug),
				},
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if recipient != 0 {
		s.notifier.Invalidate(ctx, recipient)
	}
	if mail != nil {
		s.sendMail(comment.ID, mail)
	}

	return ToCommentResponse(comment, &UserInfo{ID: author.ID, Username: author.Username, Avatar: author.AvatarPath}), nil
}

// sendMail 发送失败只记录日志，评论已经提交
func (s *discussionService) sendMail(commentID uint, mail *commentMail) {
	if s.mailer == nil {
		return
	}
	if err := email.SendCommentNotification(s.mailer, mail.to, mail.data); err != nil {
		logger.Log.WithError(err).WithField("comment_id", commentID).Warn("发送评论提醒邮件失败")
	}
}

// DeleteComment 作者删除自己的评论，回复一并删除
func (s *discussionService) DeleteComment(ctx context.Context, commentID, requesterID uint) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		comment, err := NewDiscussionRepository(tx).FindCommentByID(commentID)
		if err != nil {
			return notFound(err, ErrCommentNotFound)
		}
		if comment.UserID != requesterID {
			return ErrNotCommentOwner
		}
		return deleteTree(tx, comment.ID)
	})
}

// AdminDeleteComment 版主删除任意评论
func (s *discussionService) AdminDeleteComment(ctx context.Context, actorID, commentID uint) error {
	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := requireModerator(tx, actorID); err != nil {
			return err
		}
		comment, err := NewDiscussionRepository(tx).FindCommentByID(commentID)
		if err != nil {
			return notFound(err, ErrCommentNotFound)
		}
		return deleteTree(tx, comment.ID)
	})
}

// ToggleApproval 切换评论审核状态，未审核的评论不出现在公开列表中
func (s *discussionService) ToggleApproval(ctx context.Context, actorID, commentID uint) (*CommentResponse, error) {
	var comment *commentModel.Comment
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := requireModerator(tx, actorID); err != nil {
			return err
		}
		repo := NewDiscussionRepository(tx)
		var err error
		comment, err = repo.FindCommentByID(commentID)
		if err != nil {
			return notFound(err, ErrCommentNotFound)
		}
		comment.IsApproved = !comment.IsApproved
		return repo.SetApproved(comment.ID, comment.IsApproved)
	})
	if err != nil {
		return nil, err
	}
	return ToCommentResponse(comment, nil), nil
}

// ListForPost 文章的已审核顶级评论，新的在前
func (s *discussionService) ListForPost(ctx context.Context, postID uint) (*CommentsListResponse, error) {
	db := s.store.DB(ctx)
	var post postModel.Post
	if err := db.Select("id").First(&post, postID).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	repo := NewDiscussionRepository(db)
	comments, err := repo.FindTopLevelByPost(post.ID)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询评论失败"))
	}
	items, err := s.toResponses(db, repo, comments)
	if err != nil {
		return nil, err
	}
	total, err := repo.CountByPost(post.ID)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "统计评论失败"))
	}
	return &CommentsListResponse{Comments: items, Total: total}, nil
}

// ListReplies 评论的已审核直接回复
func (s *discussionService) ListReplies(ctx context.Context, commentID uint) ([]*CommentResponse, error) {
	db := s.store.DB(ctx)
	repo := NewDiscussionRepository(db)
	if _, err := repo.FindCommentByID(commentID); err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	replies, err := repo.FindReplies(commentID)
	if err != nil {
		return nil, database.Classify(pkgerrors.Wrap(err, "查询回复失败"))
	}
	return s.toResponses(db, repo, replies)
}

func (s *discussionService) CountForPost(ctx context.Context, postID uint) (int64, error) {
	count, err := NewDiscussionRepository(s.store.DB(ctx)).CountByPost(postID)
	if err != nil {
		return 0, database.Classify(pkgerrors.Wrap(err, "统计评论失败"))
	}
	return count, nil
}

// ========== 辅助方法 ==========

func (s *discussionService) toResponses(db *gorm.DB, repo DiscussionRepository, comments []commentModel.Comment) ([]*CommentResponse, error) {
	ids := make([]uint, 0, len(comments))
	userIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		userIDs = append(userIDs, c.UserID)
	}

	authors, err := loadAuthors(db, userIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "查询评论作者失败")
	}
	replyCounts, err := repo.CountReplies(ids)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "统计回复失败")
	}

	items := make([]*CommentResponse, 0, len(comments))
	for i := range comments {
		resp := ToCommentResponse(&comments[i], authors[comments[i].UserID])
		resp.ReplyCount = replyCounts[comments[i].ID]
		items = append(items, resp)
	}
	return items, nil
}

// deleteTree 删除评论及全部回复，并解除通知对它们的引用
func deleteTree(tx *gorm.DB, commentID uint) error {
	repo := NewDiscussionRepository(tx)
	ids, err := repo.DescendantIDs(commentID)
	if err != nil {
		return err
	}
	if err := notification.NewNotificationRepository(tx).DetachComments(ids); err != nil {
		return err
	}
	return repo.DeleteComments(ids)
}

// DeleteUserComments 删除用户的全部评论（含其下的回复），需在调用方事务中执行
func DeleteUserComments(tx *gorm.DB, userID uint) error {
	ids, err := NewDiscussionRepository(tx).IDsByAuthor(userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		// 可能已作为前面某条评论的回复被删除
		var exists int64
		if err := tx.Model(&commentModel.Comment{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			continue
		}
		if err := deleteTree(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func requireModerator(tx *gorm.DB, actorID uint) error {
	actor, err := loadUser(tx, actorID)
	if err != nil {
		return err
	}
	if !actor.Can(userModel.PermModerate) {
		return ErrCannotModerate
	}
	return nil
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
