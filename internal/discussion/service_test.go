package discussion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	commentModel "terminal-terrace/sse-blog/internal/model/comment"
	notificationModel "terminal-terrace/sse-blog/internal/model/notification"
	"terminal-terrace/sse-blog/internal/notification"
	"terminal-terrace/sse-blog/internal/testutils"
	"terminal-terrace/sse-blog/packages/email"
	"terminal-terrace/sse-blog/packages/response"
)

// recordingMailer 记录发出的邮件
type recordingMailer struct {
	mu   sync.Mutex
	sent []*email.Message
	err  error
}

func (m *recordingMailer) Send(msg *email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

// setupDiscussionService 创建 DiscussionService 实例用于测试
func setupDiscussionService(t *testing.T) (*discussionService, *gorm.DB, *recordingMailer) {
	store, db := testutils.SetupTestStore(t)
	mailer := &recordingMailer{}
	notifier := notification.NewNotificationService(store, nil)
	service := NewDiscussionService(store, notifier, mailer, "https://blog.example.com/").(*discussionService)
	return service, db, mailer
}

func countNotifications(db *gorm.DB, userID uint) int64 {
	var count int64
	db.Model(&notificationModel.Notification{}).Where("user_id = ?", userID).Count(&count)
	return count
}

func TestAddComment_NotifiesPostAuthor(t *testing.T) {
	service, db, mailer := setupDiscussionService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db, testutils.WithUsername("alice"))
	bob := testutils.CreateTestUser(db, testutils.WithUsername("bob"))
	category := testutils.CreateTestCategory(db, alice.ID)
	post := testutils.CreateTestPost(db, alice.ID, category.ID, testutils.WithTitle("Hello World"))

	result, err := service.AddComment(ctx, post.ID, bob.ID, &CreateCommentRequest{Content: "  Nice post  "})
	require.NoError(t, err)
	assert.Equal(t, "Nice post", result.Content)
	assert.True(t, result.IsApproved)
	assert.Equal(t, "bob", result.Author.Username)

	var notices []notificationModel.Notification
	require.NoError(t, db.Where("user_id = ?", alice.ID).Find(&notices).Error)
	require.Len(t, notices, 1)
	n := notices[0]
	assert.Equal(t, notificationModel.TypeComment, n.Type)
	assert.Equal(t, `bob 评论了你的文章 "Hello World"`, n.Message)
	assert.False(t, n.IsRead)
	require.NotNil(t, n.PostID)
	require.NotNil(t, n.CommentID)
	require.NotNil(t, n.SenderID)
	assert.Equal(t, post.ID, *n.PostID)
	assert.Equal(t, result.ID, *n.CommentID)
	assert.Equal(t, bob.ID, *n.SenderID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{alice.Email}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "https://blog.example.com/posts/hello-world")
}

// 最长用户名加最长标题时通知文案超过 255 字符，列类型必须容得下
func TestAddComment_LongMessage(t *testing.T) {
	service, db, _ := setupDiscussionService(t)
	ctx := context.Background()

	longName := "a" + strings.Repeat("b", 63)
	longTitle := strings.Repeat("标", 200)
	alice := testutils.CreateTestUser(db)
	commenter := testutils.CreateTestUser(db, testutils.WithUsername(longName))
	category := testutils.CreateTestCategory(db, alice.ID)
	post := testutils.CreateTestPost(db, alice.ID, category.ID, testutils.WithTitle(longTitle))

	_, err := service.AddComment(ctx, post.ID, commenter.ID, &CreateCommentRequest{Content: "hi"})
	require.NoError(t, err)

	want := notification.CommentMessage(longName, longTitle)
	assert.Greater(t, utf8.RuneCountInString(want), 255)

	var n notificationModel.Notification
	require.NoError(t, db.Where("user_id = ?", alice.ID).First(&n).Error)
	assert.Equal(t, want, n.Message)

	columns, err := db.Migrator().ColumnTypes(&notificationModel.Notification{})
	require.NoError(t, err)
	for _, c := range columns {
		if c.Name() == "message" {
			assert.True(t, strings.EqualFold("text", c.DatabaseTypeName()), "message column is %s", c.DatabaseTypeName())
		}
	}
}

func TestAddComment_OwnPostNoNotification(t *testing.T) {
	service, db, mailer := setupDiscussionService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, alice.ID)
	post := testutils.CreateTestPost(db, alice.ID, category.ID)

	_, err := service.AddComment(ctx, post.ID, alice.ID, &CreateCommentRequest{Content: "self note"})
	require.NoError(t, err)

	assert.Zero(t, countNotifications(db, alice.ID))
	assert.Empty(t, mailer.sent)
}

func TestAddComment_MailPreferenceAndFailure(t *testing.T) {
	service, db, mailer := setupDiscussionService(t)
	ctx := context.Background()

	quiet := testutils.CreateTestUser(db, testutils.WithNotifyComment(false))
	loud := testutils.CreateTestUser(db)
	bob := testutils.CreateTestUser(db)
	quietPost := testutils.CreateTestPost(db, quiet.ID, testutils.CreateTestCategory(db, quiet.ID).ID)
	loudPost := testutils.CreateTestPost(db, loud.ID, testutils.CreateTestCategory(db, loud.ID).ID)

	_, err := service.AddComment(ctx, quietPost.ID, bob.ID, &CreateCommentRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countNotifications(db, quiet.ID), "notification regardless of mail preference")
	assert.Empty(t, mailer.sent)

	mailer.err = errors.New("smtp down")
	_, err = service.AddComment(ctx, loudPost.ID, bob.ID, &CreateCommentRequest{Content: "hi"})
	require.NoError(t, err, "mail failure does not fail the comment")
	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, int64(1), countNotifications(db, loud.ID))
}

func TestAddComment_Validation(t *testing.T) {
	service, db, _ := setupDiscussionService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db)
	banned := testutils.CreateTestUser(db, testutils.WithInactive())
	category := testutils.CreateTestCategory(db, alice.ID)
	post := testutils.CreateTestPost(db, alice.ID, category.ID)
	otherPost := testutils.CreateTestPost(db, alice.ID, category.ID)
	foreign := testutils.CreateTestComment(db, otherPost.ID, alice.ID)

	tests := []struct {
		name     string
		postID   uint
		authorID uint
		req      *CreateCommentRequest
		wantErr  error
	}{
		{"empty content", post.ID, alice.ID, &CreateCommentRequest{Content: "   "}, response.ErrInvalidParameter},
		{"inactive author", post.ID, banned.ID, &CreateCommentRequest{Content: "hi"}, response.ErrForbidden},
		{"missing post", 9999, alice.ID, &CreateCommentRequest{Content: "hi"}, response.ErrNotFound},
		{"missing author", post.ID, 9999, &CreateCommentRequest{Content: "hi"}, response.ErrNotFound},
		{"parent on another post", post.ID, alice.ID, &CreateCommentRequest{Content: "hi", ParentID: &foreign.ID}, response.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AddComment(ctx, tt.postID, tt.authorID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := service.CountForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListForPost(t *testing.T) {
	service, db, _ := setupDiscussionService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db, testutils.WithUsername("alice"))
	category := testutils.CreateTestCategory(db, alice.ID)
	post := testutils.CreateTestPost(db, alice.ID, category.ID)

	base := time.Now().Add(-time.Hour)
	older := testutils.CreateTestComment(db, post.ID, alice.ID, testutils.WithCommentCreatedAt(base))
	newer := testutils.CreateTestComment(db, post.ID, alice.ID, testutils.WithCommentCreatedAt(base.Add(time.Minute)))
	testutils.CreateTestComment(db, post.ID, alice.ID, testutils.WithUnapproved())
	reply := testutils.CreateTestComment(db, post.ID, alice.ID, testutils.WithParent(older.ID))

	result, err := service.ListForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, result.Comments, 2)
	assert.Equal(t, newer.ID, result.Comments[0].ID)
	assert.Equal(t, older.ID, result.Comments[1].ID)
	assert.Equal(t, int64(1), result.Comments[1].ReplyCount)
	assert.Equal(t, "alice", result.Comments[0].Author.Username)
	assert.Equal(t, int64(3), result.Total)

	replies, err := service.ListReplies(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)

	_, err = service.ListForPost(ctx, 9999)
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestDeleteComment(t *testing.T) {
	service, db, _ := setupDiscussionService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db)
	bob := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, alice.ID)
	post := testutils.CreateTestPost(db, alice.ID, category.ID)

	created, err := service.AddComment(ctx, post.ID, bob.ID, &CreateCommentRequest{Content: "root"})
	require.NoError(t, err)
	reply := testutils.CreateTestComment(db, post.ID, alice.ID, testutils.WithParent(created.ID))
	nested := testutils.CreateTestComment(db, post.ID, bob.ID, testutils.WithParent(reply.ID))

	assert.ErrorIs(t, service.DeleteComment(ctx, created.ID, alice.ID), response.ErrForbidden)
	require.NoError(t, service.DeleteComment(ctx, created.ID, bob.ID))

	var count int64
	db.Model(&commentModel.Comment{}).Where("id IN ?", []uint{created.ID, reply.ID, nested.ID}).Count(&count)
	assert.Zero(t, count, "replies removed with the comment")

	var n notificationModel.Notification
	require.NoError(t, db.Where("user_id = ?", alice.ID).First(&n).Error)
	assert.Nil(t, n.CommentID, "notification kept without the comment reference")
	assert.NotNil(t, n.PostID)

	assert.ErrorIs(t, service.DeleteComment(ctx, created.ID, bob.ID), response.ErrNotFound)
}

func TestModeration(t *testing.T) {
	service, db, _ := setupDiscussionService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db)
	admin := testutils.CreateTestUser(db, testutils.WithAdmin())
	category := testutils.CreateTestCategory(db, alice.ID)
	post := testutils.CreateTestPost(db, alice.ID, category.ID)
	comment := testutils.CreateTestComment(db, post.ID, alice.ID)

	_, err := service.ToggleApproval(ctx, alice.ID, comment.ID)
	assert.ErrorIs(t, err, response.ErrForbidden)

	toggled, err := service.ToggleApproval(ctx, admin.ID, comment.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsApproved)

	count, err := service.CountForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "hidden comment not counted")

	assert.ErrorIs(t, service.AdminDeleteComment(ctx, alice.ID, comment.ID), response.ErrForbidden)
	require.NoError(t, service.AdminDeleteComment(ctx, admin.ID, comment.ID))
	assert.ErrorIs(t, service.AdminDeleteComment(ctx, admin.ID, comment.ID), response.ErrNotFound)
}

func TestDeleteUserComments(t *testing.T) {
	_, db, _ := setupDiscussionService(t)

	alice := testutils.CreateTestUser(db)
	bob := testutils.CreateTestUser(db)
	post := testutils.CreateTestPost(db, alice.ID, testutils.CreateTestCategory(db, alice.ID).ID)

	root := testutils.CreateTestComment(db, post.ID, bob.ID)
	testutils.CreateTestComment(db, post.ID, bob.ID, testutils.WithParent(root.ID))
	aliceReply := testutils.CreateTestComment(db, post.ID, alice.ID, testutils.WithParent(root.ID))
	kept := testutils.CreateTestComment(db, post.ID, alice.ID)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return DeleteUserComments(tx, bob.ID)
	}))

	var remaining []uint
	db.Model(&commentModel.Comment{}).Order("id").Pluck("id", &remaining)
	assert.Equal(t, []uint{kept.ID}, remaining)
	assert.NotContains(t, remaining, aliceReply.ID)
}
