package taxonomy

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	postModel "terminal-terrace/sse-blog/internal/model/post"
	"terminal-terrace/sse-blog/internal/testutils"
	"terminal-terrace/sse-blog/packages/response"
)

func setupTaxonomyService(t *testing.T) (TaxonomyService, *gorm.DB) {
	store, db := testutils.SetupTestStore(t)
	return NewTaxonomyService(store), db
}

func TestCreateCategory(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()
	owner := testutils.CreateTestUser(db)

	category, err := service.CreateCategory(ctx, owner.ID, CategoryInput{Name: "  Tech News ", Description: "all things tech"})
	require.NoError(t, err)
	assert.Equal(t, "Tech News", category.Name)
	assert.Equal(t, "tech-news", category.Slug)
	assert.Equal(t, owner.ID, category.UserID)

	tests := []struct {
		name    string
		ownerID uint
		input   CategoryInput
		wantErr error
	}{
		{"duplicate name", owner.ID, CategoryInput{Name: "Tech News"}, response.ErrDuplicateName},
		{"same slug different name", owner.ID, CategoryInput{Name: "tech news!"}, response.ErrDuplicateSlug},
		{"empty name", owner.ID, CategoryInput{Name: "   "}, response.ErrInvalidParameter},
		{"punctuation only", owner.ID, CategoryInput{Name: "???"}, response.ErrInvalidParameter},
		{"missing owner", 9999, CategoryInput{Name: "Orphan"}, response.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateCategory(ctx, tt.ownerID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var count int64
	db.Model(&postModel.Category{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateTag_Concurrent(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()
	owner := testutils.CreateTestUser(db)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CreateTag(ctx, owner.ID, TagInput{Name: "golang"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, response.ErrDuplicateName)
	}
	assert.Equal(t, 1, created)
}

func TestUpdateCategory(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()

	owner := testutils.CreateTestUser(db)
	stranger := testutils.CreateTestUser(db)
	admin := testutils.CreateTestUser(db, testutils.WithAdmin())
	category := testutils.CreateTestCategory(db, owner.ID, testutils.WithCategoryName("Go"))
	testutils.CreateTestCategory(db, owner.ID, testutils.WithCategoryName("Rust"))

	updated, err := service.UpdateCategory(ctx, owner.ID, category.ID, CategoryInput{Name: "Go", Description: "gophers"})
	require.NoError(t, err)
	assert.Equal(t, "go", updated.Slug)
	assert.Equal(t, "gophers", updated.Description)

	updated, err = service.UpdateCategory(ctx, admin.ID, category.ID, CategoryInput{Name: "Golang"})
	require.NoError(t, err)
	assert.Equal(t, "golang", updated.Slug)

	_, err = service.UpdateCategory(ctx, owner.ID, category.ID, CategoryInput{Name: "Rust"})
	assert.ErrorIs(t, err, response.ErrDuplicateName)

	_, err = service.UpdateCategory(ctx, stranger.ID, category.ID, CategoryInput{Name: "Mine"})
	assert.ErrorIs(t, err, response.ErrForbidden)

	_, err = service.UpdateCategory(ctx, owner.ID, 9999, CategoryInput{Name: "Ghost"})
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestUpdateTag(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()

	owner := testutils.CreateTestUser(db)
	tag := testutils.CreateTestTag(db, owner.ID, testutils.WithTagName("web"))

	updated, err := service.UpdateTag(ctx, owner.ID, tag.ID, TagInput{Name: "Web Dev"})
	require.NoError(t, err)
	assert.Equal(t, "web-dev", updated.Slug)

	found, err := service.GetTagBySlug(ctx, "web-dev")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, found.ID)

	_, err = service.GetTagBySlug(ctx, "web")
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestDeleteCategory_InUse(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()

	owner := testutils.CreateTestUser(db)
	stranger := testutils.CreateTestUser(db)
	used := testutils.CreateTestCategory(db, owner.ID)
	empty := testutils.CreateTestCategory(db, owner.ID)
	testutils.CreateTestPost(db, owner.ID, used.ID, testutils.WithDraft())

	assert.ErrorIs(t, service.DeleteCategory(ctx, owner.ID, used.ID), response.ErrInUse)
	assert.ErrorIs(t, service.DeleteCategory(ctx, stranger.ID, empty.ID), response.ErrForbidden)
	require.NoError(t, service.DeleteCategory(ctx, owner.ID, empty.ID))
	assert.ErrorIs(t, service.DeleteCategory(ctx, owner.ID, empty.ID), response.ErrNotFound)

	_, err := service.GetCategoryBySlug(ctx, used.Slug)
	assert.NoError(t, err, "refused delete leaves category intact")
}

func TestDeleteTag_InUse(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()

	owner := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, owner.ID)
	used := testutils.CreateTestTag(db, owner.ID)
	free := testutils.CreateTestTag(db, owner.ID)
	testutils.CreateTestPost(db, owner.ID, category.ID, testutils.WithTags(used.ID))

	assert.ErrorIs(t, service.DeleteTag(ctx, owner.ID, used.ID), response.ErrInUse)
	assert.NoError(t, service.DeleteTag(ctx, owner.ID, free.ID))
}

func TestListWithCounts(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db)
	bob := testutils.CreateTestUser(db)
	tech := testutils.CreateTestCategory(db, alice.ID, testutils.WithCategoryName("Tech"))
	life := testutils.CreateTestCategory(db, bob.ID, testutils.WithCategoryName("Life"))
	popular := testutils.CreateTestTag(db, alice.ID, testutils.WithTagName("popular"))
	quiet := testutils.CreateTestTag(db, alice.ID, testutils.WithTagName("quiet"))

	testutils.CreateTestPost(db, alice.ID, tech.ID, testutils.WithTags(popular.ID, quiet.ID))
	testutils.CreateTestPost(db, alice.ID, tech.ID, testutils.WithTags(popular.ID))
	testutils.CreateTestPost(db, alice.ID, tech.ID, testutils.WithDraft(), testutils.WithTags(quiet.ID))

	categories, err := service.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	counts := map[uint]int64{}
	for _, c := range categories {
		counts[c.ID] = c.PostCount
	}
	assert.Equal(t, int64(2), counts[tech.ID], "drafts are not counted")
	assert.Equal(t, int64(0), counts[life.ID])

	tags, err := service.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, popular.ID, tags[0].ID)
	assert.Equal(t, int64(2), tags[0].PostCount)
	assert.Equal(t, int64(1), tags[1].PostCount)

	owned, err := service.ListCategoriesByOwner(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, life.ID, owned[0].ID)

	ownedTags, err := service.ListTagsByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, ownedTags)
}

// 删除前的引用计数在排他锁下进行，并发创建文章要么先提交被计入，要么在锁释放后找不到分类
func TestDeleteChecksLockRow(t *testing.T) {
	db, queries := testutils.SetupDryRunPostgres(t)
	repo := NewTaxonomyRepository(db)

	repo.LockCategory(1)
	repo.LockTag(1)

	require.Len(t, *queries, 2)
	assert.Contains(t, (*queries)[0], `FROM "category"`)
	assert.Contains(t, (*queries)[1], `FROM "tag"`)
	for _, sql := range *queries {
		assert.True(t, strings.HasSuffix(sql, "FOR UPDATE"), sql)
	}
}

// SQLite 忽略行锁子句，删除路径的行为不变
func TestDeleteCategory_AfterLock(t *testing.T) {
	service, db := setupTaxonomyService(t)
	ctx := context.Background()
	owner := testutils.CreateTestUser(db)
	category := testutils.CreateTestCategory(db, owner.ID)

	require.NoError(t, service.DeleteCategory(ctx, owner.ID, category.ID))
	assert.ErrorIs(t, service.DeleteCategory(ctx, owner.ID, category.ID), response.ErrNotFound)
}
