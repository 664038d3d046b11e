package route

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"terminal-terrace/sse-blog/internal/database"
	"terminal-terrace/sse-blog/internal/discussion"
	"terminal-terrace/sse-blog/internal/dto"
	"terminal-terrace/sse-blog/internal/middleware"
	"terminal-terrace/sse-blog/internal/notification"
	"terminal-terrace/sse-blog/internal/post"
	"terminal-terrace/sse-blog/internal/social"
	"terminal-terrace/sse-blog/internal/taxonomy"
	"terminal-terrace/sse-blog/internal/user"
)

// Deps 路由依赖，由 main 组装后注入
type Deps struct {
	Store     *database.Store
	JWTSecret string
	UploadDir string
	// SecureCookie 为 true 时登录 cookie 只通过 HTTPS 发送
	SecureCookie bool

	Users         user.UserService
	Admin         user.AdminService
	Posts         post.PostService
	Taxonomy      taxonomy.TaxonomyService
	Discussion    discussion.DiscussionService
	Social        social.SocialService
	Notifications notification.NotificationService
}

func initRoute(r *gin.Engine, deps *Deps) {
	auth := middleware.JWTAuth(deps.JWTSecret)
	optionalAuth := middleware.OptionalJWTAuth(deps.JWTSecret)

	r.GET("/health", healthHandler(deps.Store))
	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	api := r.Group("/api/v1")

	user.RegisterRoutes(api, user.NewUserHandler(deps.Users, deps.Admin, deps.SecureCookie), auth, optionalAuth)
	post.RegisterRoutes(api, post.NewPostHandler(deps.Posts), auth, optionalAuth)
	taxonomy.RegisterRoutes(api, taxonomy.NewTaxonomyHandler(deps.Taxonomy), auth)
	discussion.RegisterRoutes(api, discussion.NewDiscussionHandler(deps.Discussion), auth)
	social.RegisterRoutes(api, social.NewSocialHandler(deps.Social), auth, optionalAuth)
	notification.RegisterRoutes(api, notification.NewNotificationHandler(deps.Notifications), auth)
}

// healthHandler 存储可达时返回 200，否则 503
func healthHandler(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			dto.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func SetupRouter(deps *Deps) *gin.Engine {
	r := gin.Default()

	origin := os.Getenv("FRONTEND_URL")
	if origin == "" {
		origin = "http://localhost:5173" // 默认值
	}

	// 设置跨域请求
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}))

	initRoute(r, deps)

	return r
}
