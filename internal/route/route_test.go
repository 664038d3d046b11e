package route

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"terminal-terrace/sse-blog/internal/discussion"
	"terminal-terrace/sse-blog/internal/notification"
	"terminal-terrace/sse-blog/internal/post"
	"terminal-terrace/sse-blog/internal/social"
	"terminal-terrace/sse-blog/internal/taxonomy"
	"terminal-terrace/sse-blog/internal/testutils"
	"terminal-terrace/sse-blog/internal/upload"
	"terminal-terrace/sse-blog/internal/user"
	"terminal-terrace/sse-blog/packages/email"
	"terminal-terrace/sse-blog/packages/response"
)

const testSecret = "test-secret"

type envelope struct {
	Code    response.ResponseCode `json:"code"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (c *client) ok(method, path string, body, out interface{}) {
	c.t.Helper()
	status, env := c.do(method, path, body)
	require.Equal(c.t, http.StatusOK, status, env.Message)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
}

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	store, _ := testutils.SetupTestStore(t)
	images := upload.NewLocalStore(t.TempDir(), 1<<20)
	notifier := notification.NewNotificationService(store, nil)

	return SetupRouter(&Deps{
		Store:     store,
		JWTSecret: testSecret,
		Users: user.NewUserService(store, images, email.NopMailer{}, user.Options{
			JWTSecret:  testSecret,
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		}),
		Admin:         user.NewAdminService(store, notifier, images),
		Posts:         post.NewPostService(store, images),
		Taxonomy:      taxonomy.NewTaxonomyService(store),
		Discussion:    discussion.NewDiscussionService(store, notifier, email.NopMailer{}, "http://localhost"),
		Social:        social.NewSocialService(store, notifier, social.Options{}),
		Notifications: notifier,
	})
}

func signUp(t *testing.T, router *gin.Engine, username string) (*client, uint) {
	t.Helper()
	anon := &client{t: t, router: router}

	var me user.Me
	anon.ok(http.MethodPost, "/api/v1/auth/register", gin.H{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
	}, &me)

	var login user.LoginResult
	anon.ok(http.MethodPost, "/api/v1/auth/login", gin.H{"login": username, "password": "secret1"}, &login)
	require.NotEmpty(t, login.Token)
	return &client{t: t, router: router, token: login.Token}, me.ID
}

// 完整流程：发文、关注、评论、通知、动态
func TestScenario_PublishFollowComment(t *testing.T) {
	router := setupRouter(t)
	alice, aliceID := signUp(t, router, "alice")
	bob, _ := signUp(t, router, "bob")
	anon := &client{t: t, router: router}

	var category struct {
		ID uint `json:"id"`
	}
	alice.ok(http.MethodPost, "/api/v1/categories", gin.H{"name": "Tech"}, &category)

	var created struct {
		ID        uint   `json:"id"`
		Slug      string `json:"slug"`
		ViewCount int64  `json:"view_count"`
	}
	alice.ok(http.MethodPost, "/api/v1/posts", gin.H{
		"title":       "Hello World",
		"content":     "First post",
		"category_id": category.ID,
		"published":   true,
	}, &created)
	assert.Equal(t, "hello-world", created.Slug)

	bob.ok(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", aliceID), nil, nil)
	bob.ok(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", created.ID), gin.H{"content": "Nice post"}, nil)

	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	alice.ok(http.MethodGet, "/api/v1/notifications/unread-count", nil, &unread)
	assert.Equal(t, int64(1), unread.UnreadCount)

	var feed post.PostPage
	bob.ok(http.MethodGet, "/api/v1/me/feed", nil, &feed)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, created.ID, feed.Items[0].ID)

	var detail post.PostDetail
	anon.ok(http.MethodGet, "/api/v1/posts/slug/hello-world", nil, &detail)
	assert.Equal(t, "Hello World", detail.Title)
	assert.Zero(t, detail.ViewCount, "reading does not count a view")

	anon.ok(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/view", created.ID), nil, nil)
	anon.ok(http.MethodGet, "/api/v1/posts/slug/hello-world", nil, &detail)
	assert.Equal(t, int64(1), detail.ViewCount)
}

func TestRouter_ErrorMapping(t *testing.T) {
	router := setupRouter(t)
	alice, _ := signUp(t, router, "alice")
	anon := &client{t: t, router: router}

	tests := []struct {
		name   string
		c      *client
		method string
		path   string
		body   interface{}
		status int
		code   response.ResponseCode
	}{
		{"missing token", anon, http.MethodGet, "/api/v1/me", nil, http.StatusUnauthorized, response.Unauthorized},
		{"unknown post", anon, http.MethodGet, "/api/v1/posts/slug/nope", nil, http.StatusNotFound, response.NotFound},
		{"bad id", anon, http.MethodGet, "/api/v1/posts/abc/related", nil, http.StatusBadRequest, response.ParseError},
		{"duplicate user", anon, http.MethodPost, "/api/v1/auth/register", gin.H{
			"username": "alice", "email": "other@example.com", "password": "secret1", "confirm_password": "secret1",
		}, http.StatusConflict, response.DuplicateName},
		{"wrong password", anon, http.MethodPost, "/api/v1/auth/login", gin.H{"login": "alice", "password": "nope12"}, http.StatusUnauthorized, response.Unauthorized},
		{"invalid category", alice, http.MethodPost, "/api/v1/posts", gin.H{
			"title": "T", "content": "C", "category_id": 9999,
		}, http.StatusBadRequest, response.InvalidCategory},
		{"non admin", alice, http.MethodGet, "/api/v1/admin/users", nil, http.StatusForbidden, response.Forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.c.t = t
			status, env := tt.c.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, env.Message)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	router := setupRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
