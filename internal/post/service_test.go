package post

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	commentModel "terminal-terrace/sse-blog/internal/model/comment"
	notificationModel "terminal-terrace/sse-blog/internal/model/notification"
	postModel "terminal-terrace/sse-blog/internal/model/post"
	"terminal-terrace/sse-blog/internal/testutils"
	"terminal-terrace/sse-blog/packages/response"
)

// fakeImages 内存图片存储
type fakeImages struct {
	mu      sync.Mutex
	files   map[string][]byte
	removed []string
	next    int
}

func newFakeImages() *fakeImages {
	return &fakeImages{files: map[string][]byte{}}
}

func (f *fakeImages) Save(r io.Reader, ext string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	name := fmt.Sprintf("img-%d%s", f.next, ext)
	f.files[name] = data
	return name, nil
}

func (f *fakeImages) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, name)
	f.removed = append(f.removed, name)
	return nil
}

func setupPostService(t *testing.T) (*postService, *gorm.DB, *fakeImages) {
	store, db := testutils.SetupTestStore(t)
	images := newFakeImages()
	return NewPostService(store, images).(*postService), db, images
}

func strPtr(s string) *string { return &s }

func TestCreatePost(t *testing.T) {
	service, db, _ := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db)
	other := testutils.CreateTestUser(db)
	inactive := testutils.CreateTestUser(db, testutils.WithInactive())
	category := testutils.CreateTestCategory(db, author.ID)
	foreignCategory := testutils.CreateTestCategory(db, other.ID)
	ownTag := testutils.CreateTestTag(db, author.ID)
	foreignTag := testutils.CreateTestTag(db, other.ID)

	t.Run("creates post with owned tags only", func(t *testing.T) {
		post, err := service.CreatePost(ctx, author.ID, &CreatePostInput{
			Title:      "Hello World",
			Content:    "body",
			Summary:    "short",
			CategoryID: category.ID,
			TagIDs:     []uint{ownTag.ID, foreignTag.ID, 9999},
			Published:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, "hello-world", post.Slug)
		assert.True(t, post.IsPublished)

		tags, err := service.TagsOf(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, ownTag.ID, tags[0].ID)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := service.CreatePost(ctx, other.ID, &CreatePostInput{
			Title:      "hello   world!",
			Content:    "body",
			CategoryID: foreignCategory.ID,
		})
		assert.ErrorIs(t, err, response.ErrDuplicateSlug)
	})

	t.Run("category owned by someone else", func(t *testing.T) {
		_, err := service.CreatePost(ctx, author.ID, &CreatePostInput{
			Title:      "Borrowed category",
			Content:    "body",
			CategoryID: foreignCategory.ID,
		})
		assert.ErrorIs(t, err, response.ErrInvalidCategory)
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := service.CreatePost(ctx, author.ID, &CreatePostInput{
			Title:      "No category",
			Content:    "body",
			CategoryID: 9999,
		})
		assert.ErrorIs(t, err, response.ErrInvalidCategory)
	})

	t.Run("inactive author cannot write", func(t *testing.T) {
		cat := testutils.CreateTestCategory(db, inactive.ID)
		_, err := service.CreatePost(ctx, inactive.ID, &CreatePostInput{
			Title:      "Banned",
			Content:    "body",
			CategoryID: cat.ID,
		})
		assert.ErrorIs(t, err, response.ErrForbidden)
	})

	t.Run("invalid fields", func(t *testing.T) {
		cases := []*CreatePostInput{
			{Title: "", Content: "body", CategoryID: category.ID},
			{Title: "No body", Content: "  ", CategoryID: category.ID},
			{Title: "Long summary", Content: "body", Summary: strings.Repeat("摘", 201), CategoryID: category.ID},
			{Title: "!!!", Content: "body", CategoryID: category.ID},
		}
		for _, in := range cases {
			_, err := service.CreatePost(ctx, author.ID, in)
			assert.ErrorIs(t, err, response.ErrInvalidParameter, in.Title)
		}
	})

	t.Run("failed create leaves no rows", func(t *testing.T) {
		var count int64
		db.Model(&postModel.Post{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestEditPost(t *testing.T) {
	service, db, _ := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db)
	admin := testutils.CreateTestUser(db, testutils.WithAdmin())
	category := testutils.CreateTestCategory(db, author.ID)
	post := testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithTitle("First Title"))
	testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithTitle("Taken Title"))

	t.Run("content edit keeps slug", func(t *testing.T) {
		updated, err := service.EditPost(ctx, author.ID, post.ID, &EditPostInput{Content: strPtr("new body")})
		require.NoError(t, err)
		assert.Equal(t, "first-title", updated.Slug)
		assert.Equal(t, "new body", updated.Content)
	})

	t.Run("same title keeps slug", func(t *testing.T) {
		updated, err := service.EditPost(ctx, author.ID, post.ID, &EditPostInput{Title: strPtr("First Title")})
		require.NoError(t, err)
		assert.Equal(t, "first-title", updated.Slug)
	})

	t.Run("new title regenerates slug", func(t *testing.T) {
		updated, err := service.EditPost(ctx, author.ID, post.ID, &EditPostInput{Title: strPtr("Second Title")})
		require.NoError(t, err)
		assert.Equal(t, "second-title", updated.Slug)
	})

	t.Run("title colliding with another post", func(t *testing.T) {
		_, err := service.EditPost(ctx, author.ID, post.ID, &EditPostInput{Title: strPtr("Taken Title")})
		assert.ErrorIs(t, err, response.ErrDuplicateSlug)
	})

	t.Run("tags are replaced", func(t *testing.T) {
		a := testutils.CreateTestTag(db, author.ID)
		b := testutils.CreateTestTag(db, author.ID)
		_, err := service.EditPost(ctx, author.ID, post.ID, &EditPostInput{TagIDs: &[]uint{a.ID}})
		require.NoError(t, err)
		_, err = service.EditPost(ctx, author.ID, post.ID, &EditPostInput{TagIDs: &[]uint{b.ID}})
		require.NoError(t, err)

		tags, err := service.TagsOf(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, b.ID, tags[0].ID)
	})

	t.Run("only the author may edit", func(t *testing.T) {
		_, err := service.EditPost(ctx, admin.ID, post.ID, &EditPostInput{Content: strPtr("hijack")})
		assert.ErrorIs(t, err, response.ErrForbidden)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := service.EditPost(ctx, author.ID, 9999, &EditPostInput{Content: strPtr("x")})
		assert.ErrorIs(t, err, response.ErrNotFound)
	})
}

func TestDeletePost_Cascade(t *testing.T) {
	service, db, images := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db)
	reader := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, author.ID)
	tag := testutils.CreateTestTag(db, author.ID)
	post := testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithTags(tag.ID))
	require.NoError(t, db.Model(post).Update("cover_path", "cover.png").Error)
	images.files["cover.png"] = []byte("x")

	var last *commentModel.Comment
	for i := 0; i < 5; i++ {
		last = testutils.CreateTestComment(db, post.ID, reader.ID)
	}
	require.NoError(t, db.Create(&postModel.Favorite{UserID: reader.ID, PostID: post.ID}).Error)
	notice := &notificationModel.Notification{
		UserID:    author.ID,
		SenderID:  &reader.ID,
		PostID:    &post.ID,
		CommentID: &last.ID,
		Message:   "comment",
		Type:      notificationModel.TypeComment,
	}
	require.NoError(t, db.Create(notice).Error)

	require.NoError(t, service.DeletePost(ctx, author.ID, post.ID))

	var count int64
	db.Model(&commentModel.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&postModel.PostTag{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&postModel.Favorite{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&postModel.Tag{}).Where("id = ?", tag.ID).Count(&count)
	assert.Equal(t, int64(1), count, "tag survives")

	var reloaded notificationModel.Notification
	require.NoError(t, db.First(&reloaded, notice.ID).Error)
	assert.Nil(t, reloaded.PostID)
	assert.Nil(t, reloaded.CommentID)

	assert.Contains(t, images.removed, "cover.png")

	_, err := service.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestDeletePost_Permissions(t *testing.T) {
	service, db, _ := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db)
	stranger := testutils.CreateTestUser(db)
	admin := testutils.CreateTestUser(db, testutils.WithAdmin())
	category := testutils.CreateTestCategory(db, author.ID)
	post := testutils.CreateTestPost(db, author.ID, category.ID)

	assert.ErrorIs(t, service.DeletePost(ctx, stranger.ID, post.ID), response.ErrForbidden)
	assert.NoError(t, service.DeletePost(ctx, admin.ID, post.ID))
	assert.ErrorIs(t, service.DeletePost(ctx, admin.ID, post.ID), response.ErrNotFound)
}

// 默认的 SQLite 测试库串行执行事务，只验证计数结果；
// 设置 TEST_DATABASE_DSN 在 PostgreSQL 上运行时才真正并发执行 view_count + 1
func TestIncrementView_Concurrent(t *testing.T) {
	service, db, _ := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, author.ID)
	post := testutils.CreateTestPost(db, author.ID, category.ID)

	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- service.IncrementView(ctx, post.ID)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	reloaded, err := service.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), reloaded.ViewCount)

	assert.ErrorIs(t, service.IncrementView(ctx, 9999), response.ErrNotFound)
}

func TestGetBySlug_DraftVisibility(t *testing.T) {
	service, db, _ := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db, testutils.WithUsername("alice"))
	stranger := testutils.CreateTestUser(db)
	admin := testutils.CreateTestUser(db, testutils.WithAdmin())
	category := testutils.CreateTestCategory(db, author.ID, testutils.WithCategoryName("Tech"))
	tag := testutils.CreateTestTag(db, author.ID)
	draft := testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithTitle("Secret Draft"), testutils.WithDraft(), testutils.WithTags(tag.ID))

	_, err := service.GetBySlug(ctx, draft.Slug, 0)
	assert.ErrorIs(t, err, response.ErrNotFound)
	_, err = service.GetBySlug(ctx, draft.Slug, stranger.ID)
	assert.ErrorIs(t, err, response.ErrNotFound)

	detail, err := service.GetBySlug(ctx, draft.Slug, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", detail.AuthorName)
	assert.Equal(t, "Tech", detail.CategoryName)
	assert.Len(t, detail.Tags, 1)

	_, err = service.GetBySlug(ctx, draft.Slug, admin.ID)
	assert.NoError(t, err)

	_, err = service.GetBySlug(ctx, "no-such-post", author.ID)
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestListPublished(t *testing.T) {
	service, db, _ := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, author.ID)
	base := time.Now().Add(-time.Hour)
	old := testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithCreatedAt(base), testutils.WithViewCount(50))
	mid := testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithCreatedAt(base.Add(time.Minute)), testutils.WithViewCount(5))
	recent := testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithCreatedAt(base.Add(2*time.Minute)))
	testutils.CreateTestPost(db, author.ID, category.ID, testutils.WithDraft())

	page, err := service.ListPublished(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []uint{recent.ID, mid.ID, old.ID}, ids(page.Items))

	page, err = service.ListPublished(ctx, ListQuery{Order: OrderPopular})
	require.NoError(t, err)
	assert.Equal(t, old.ID, page.Items[0].ID)

	page, err = service.ListPublished(ctx, ListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, []uint{old.ID}, ids(page.Items))

	page, err = service.ListByAuthor(ctx, author.ID, author.ID, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total, "author sees own drafts")

	page, err = service.ListByAuthor(ctx, author.ID, 0, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	page, err = service.ListByCategory(ctx, category.ID, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
}

func TestSearchAndRelated(t *testing.T) {
	service, db, _ := setupPostService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db, testutils.WithUsername("Alice"))
	bob := testutils.CreateTestUser(db, testutils.WithUsername("bob"))
	aliceCat := testutils.CreateTestCategory(db, alice.ID)
	bobCat := testutils.CreateTestCategory(db, bob.ID)
	bobTag := testutils.CreateTestTag(db, bob.ID)

	golang := testutils.CreateTestPost(db, alice.ID, aliceCat.ID, testutils.WithTitle("Learning Golang"), testutils.WithTags(bobTag.ID))
	rust := testutils.CreateTestPost(db, bob.ID, bobCat.ID, testutils.WithTitle("Rust 100% safe"), testutils.WithTags(bobTag.ID))
	unrelated := testutils.CreateTestPost(db, bob.ID, bobCat.ID, testutils.WithTitle("Cooking"))

	page, err := service.Search(ctx, "GOLANG", ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []uint{golang.ID}, ids(page.Items))

	page, err = service.Search(ctx, "alice", ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []uint{golang.ID}, ids(page.Items))

	page, err = service.Search(ctx, "100%", ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []uint{rust.ID}, ids(page.Items))

	page, err = service.Search(ctx, "  ", ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	related, err := service.Related(ctx, golang.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint{rust.ID}, ids(related), "shared tag only")

	related, err = service.Related(ctx, rust.ID, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{golang.ID, unrelated.ID}, ids(related))

	page, err = service.ListByTag(ctx, bobTag.ID, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	popular, err := service.Popular(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, popular, 2)
}

func TestSetCover(t *testing.T) {
	service, db, images := setupPostService(t)
	ctx := context.Background()

	author := testutils.CreateTestUser(db)
	stranger := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, author.ID)
	post := testutils.CreateTestPost(db, author.ID, category.ID)

	updated, err := service.SetCover(ctx, author.ID, post.ID, bytes.NewReader([]byte("one")), ".png")
	require.NoError(t, err)
	first := updated.CoverPath
	assert.Contains(t, images.files, first)

	updated, err = service.SetCover(ctx, author.ID, post.ID, bytes.NewReader([]byte("two")), ".png")
	require.NoError(t, err)
	assert.NotEqual(t, first, updated.CoverPath)
	assert.NotContains(t, images.files, first, "old cover removed")

	_, err = service.SetCover(ctx, stranger.ID, post.ID, bytes.NewReader([]byte("three")), ".png")
	assert.ErrorIs(t, err, response.ErrForbidden)
	assert.Len(t, images.files, 1, "file of failed update removed")
}

func ids(items []PostSummary) []uint {
	out := make([]uint, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

// 文章引用分类和标签时加共享锁，与删除分类/标签时的排他锁互斥
func TestReferenceChecksTakeShareLocks(t *testing.T) {
	db, queries := testutils.SetupDryRunPostgres(t)
	repo := NewPostRepository(db)

	repo.GetCategory(1)
	repo.FilterOwnedTagIDs(1, []uint{2, 3})

	require.Len(t, *queries, 2)
	for _, sql := range *queries {
		assert.True(t, strings.HasSuffix(sql, "FOR SHARE"), sql)
	}
}
