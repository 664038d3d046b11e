package testutils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	commentModel "terminal-terrace/sse-blog/internal/model/comment"
	postModel "terminal-terrace/sse-blog/internal/model/post"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/internal/slug"
)

// CreateTestUser creates an active test user with unique username/email and default preferences
func CreateTestUser(db *gorm.DB, opts ...UserOption) *userModel.User {
	uniqueID := uuid.New().String()

	testUser := &userModel.User{
		Username:       fmt.Sprintf("test_user_%s", uniqueID),
		Email:          fmt.Sprintf("test_%s@example.com", uniqueID),
		PasswordHash:   "not-a-real-hash",
		IsActive:       true,
		NotifyFollowed: true,
		NotifyComment:  true,
		NotifyReply:    true,
		ShowFollowing:  true,
		CreatedAt:      time.Now(),
		LastSeen:       time.Now(),
	}

	for _, opt := range opts {
		opt(testUser)
	}

	if err := db.Create(testUser).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test user: %v", err))
	}

	return testUser
}

// UserOption configures test user
type UserOption func(*userModel.User)

// WithUsername sets the username
func WithUsername(username string) UserOption {
	return func(u *userModel.User) {
		u.Username = username
	}
}

// WithEmail sets the email
func WithEmail(email string) UserOption {
	return func(u *userModel.User) {
		u.Email = email
	}
}

// WithAdmin marks the user as administrator
func WithAdmin() UserOption {
	return func(u *userModel.User) {
		u.IsAdmin = true
	}
}

// WithInactive disables the account
func WithInactive() UserOption {
	return func(u *userModel.User) {
		u.IsActive = false
	}
}

// WithPassword stores a bcrypt hash of password
func WithPassword(password string) UserOption {
	return func(u *userModel.User) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		u.PasswordHash = string(hash)
	}
}

// WithNotifyComment sets the comment mail preference
func WithNotifyComment(enabled bool) UserOption {
	return func(u *userModel.User) {
		u.NotifyComment = enabled
	}
}

// WithNotifyFollowed sets the follow notification preference
func WithNotifyFollowed(enabled bool) UserOption {
	return func(u *userModel.User) {
		u.NotifyFollowed = enabled
	}
}

// WithHiddenFollowing hides the following list from other users
func WithHiddenFollowing() UserOption {
	return func(u *userModel.User) {
		u.ShowFollowing = false
	}
}

// CreateTestCategory creates a category owned by ownerID
func CreateTestCategory(db *gorm.DB, ownerID uint, opts ...CategoryOption) *postModel.Category {
	name := fmt.Sprintf("category %s", uuid.New().String())

	category := &postModel.Category{
		Name:   name,
		Slug:   slug.Make(name),
		UserID: ownerID,
	}

	for _, opt := range opts {
		opt(category)
	}

	if err := db.Create(category).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test category: %v", err))
	}

	return category
}

// CategoryOption configures test category
type CategoryOption func(*postModel.Category)

// WithCategoryName sets name and slug
func WithCategoryName(name string) CategoryOption {
	return func(c *postModel.Category) {
		c.Name = name
		c.Slug = slug.Make(name)
	}
}

// CreateTestTag creates a tag owned by ownerID
func CreateTestTag(db *gorm.DB, ownerID uint, opts ...TagOption) *postModel.Tag {
	name := fmt.Sprintf("tag %s", uuid.New().String())

	tag := &postModel.Tag{
		Name:   name,
		Slug:   slug.Make(name),
		UserID: ownerID,
	}

	for _, opt := range opts {
		opt(tag)
	}

	if err := db.Create(tag).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test tag: %v", err))
	}

	return tag
}

// TagOption configures test tag
type TagOption func(*postModel.Tag)

// WithTagName sets name and slug
func WithTagName(name string) TagOption {
	return func(t *postModel.Tag) {
		t.Name = name
		t.Slug = slug.Make(name)
	}
}

// CreateTestPost creates a published post with a unique title
func CreateTestPost(db *gorm.DB, authorID, categoryID uint, opts ...PostOption) *postModel.Post {
	title := fmt.Sprintf("Test Post %s", uuid.New().String())

	post := &postModel.Post{
		Title:       title,
		Slug:        slug.Make(title),
		Summary:     "Test summary",
		Content:     "Test content",
		IsPublished: true,
		UserID:      authorID,
		CategoryID:  categoryID,
	}

	var tagIDs []uint
	for _, opt := range opts {
		opt(post, &tagIDs)
	}

	if err := db.Create(post).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test post: %v", err))
	}
	for _, tagID := range tagIDs {
		if err := db.Create(&postModel.PostTag{PostID: post.ID, TagID: tagID}).Error; err != nil {
			panic(fmt.Sprintf("Failed to tag test post: %v", err))
		}
	}

	return post
}

// PostOption configures test post
type PostOption func(p *postModel.Post, tagIDs *[]uint)

// WithTitle sets title and slug
func WithTitle(title string) PostOption {
	return func(p *postModel.Post, _ *[]uint) {
		p.Title = title
		p.Slug = slug.Make(title)
	}
}

// WithDraft leaves the post unpublished
func WithDraft() PostOption {
	return func(p *postModel.Post, _ *[]uint) {
		p.IsPublished = false
	}
}

// WithViewCount sets the initial view counter
func WithViewCount(n int64) PostOption {
	return func(p *postModel.Post, _ *[]uint) {
		p.ViewCount = n
	}
}

// WithCreatedAt sets the creation time
func WithCreatedAt(at time.Time) PostOption {
	return func(p *postModel.Post, _ *[]uint) {
		p.CreatedAt = at
		p.UpdatedAt = at
	}
}

// WithTags associates the post with tags
func WithTags(ids ...uint) PostOption {
	return func(_ *postModel.Post, tagIDs *[]uint) {
		*tagIDs = append(*tagIDs, ids...)
	}
}

// CreateTestComment creates an approved comment
func CreateTestComment(db *gorm.DB, postID, authorID uint, opts ...CommentOption) *commentModel.Comment {
	comment := &commentModel.Comment{
		Content:    fmt.Sprintf("comment %s", uuid.New().String()),
		IsApproved: true,
		PostID:     postID,
		UserID:     authorID,
	}

	for _, opt := range opts {
		opt(comment)
	}

	if err := db.Create(comment).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test comment: %v", err))
	}

	return comment
}

// CommentOption configures test comment
type CommentOption func(*commentModel.Comment)

// WithParent makes the comment a reply
func WithParent(parentID uint) CommentOption {
	return func(c *commentModel.Comment) {
		c.ParentID = &parentID
	}
}

// WithUnapproved hides the comment from public listings
func WithUnapproved() CommentOption {
	return func(c *commentModel.Comment) {
		c.IsApproved = false
	}
}

// WithCommentCreatedAt sets the creation time
func WithCommentCreatedAt(at time.Time) CommentOption {
	return func(c *commentModel.Comment) {
		c.CreatedAt = at
	}
}
