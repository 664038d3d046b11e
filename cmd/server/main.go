package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terminal-terrace/sse-blog/config"
	"terminal-terrace/sse-blog/internal/database"
	"terminal-terrace/sse-blog/internal/discussion"
	grpcServer "terminal-terrace/sse-blog/internal/grpc"
	"terminal-terrace/sse-blog/internal/logger"
	"terminal-terrace/sse-blog/internal/notification"
	"terminal-terrace/sse-blog/internal/post"
	"terminal-terrace/sse-blog/internal/route"
	"terminal-terrace/sse-blog/internal/social"
	"terminal-terrace/sse-blog/internal/taxonomy"
	"terminal-terrace/sse-blog/internal/upload"
	"terminal-terrace/sse-blog/internal/user"
	"terminal-terrace/sse-blog/packages/email"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	config.MustLoad(configPath)
	conf := config.Conf

	// 2. 初始化日志
	logger.Init(conf.Log.Level, conf.Log.Format)
	if conf.Server.Mode != "" {
		gin.SetMode(conf.Server.Mode)
	}

	// 3. 初始化数据库与缓存
	db, err := database.Open(conf.Database)
	if err != nil {
		logger.Log.WithError(err).Fatal("数据库初始化失败")
	}
	store := database.NewStore(db,
		database.WithMaxRetries(conf.Database.MaxRetries),
		database.WithRetryBackoff(time.Duration(conf.Database.RetryBackoff)*time.Millisecond),
	)

	redisClient, err := database.OpenRedis(conf.Redis)
	if err != nil {
		// Redis 只用于未读数缓存，不可用时退化为直接查库
		logger.Log.WithError(err).Warn("Redis 连接失败，未读数缓存已禁用")
		redisClient = nil
	}

	// 4. 外部协作者
	var mailer email.Mailer = email.NopMailer{}
	if conf.Mail.Enabled {
		mailer = email.NewClient(&email.Config{
			Host:     conf.Mail.Host,
			Port:     conf.Mail.Port,
			Username: conf.Mail.Username,
			Password: conf.Mail.Password,
			From:     conf.Mail.From,
			UseTLS:   conf.Mail.UseTLS,
		})
	}
	images := upload.NewLocalStore(conf.Upload.Dir, conf.Upload.MaxSize)

	// 5. 组装服务
	cache := notification.NewUnreadCache(redisClient, time.Duration(conf.Notification.UnreadCacheTTL)*time.Second)
	notifier := notification.NewNotificationService(store, cache)

	deps := &route.Deps{
		Store:        store,
		JWTSecret:    conf.JWT.Secret,
		UploadDir:    conf.Upload.Dir,
		SecureCookie: conf.Server.Mode == gin.ReleaseMode,
		Users: user.NewUserService(store, images, mailer, user.Options{
			JWTSecret: conf.JWT.Secret,
			TokenTTL:  time.Duration(conf.JWT.ExpireTime) * time.Hour,
			BaseURL:   conf.Server.BaseURL,
		}),
		Admin:      user.NewAdminService(store, notifier, images),
		Posts:      post.NewPostService(store, images),
		Taxonomy:   taxonomy.NewTaxonomyService(store),
		Discussion: discussion.NewDiscussionService(store, notifier, mailer, conf.Server.BaseURL),
		Social: social.NewSocialService(store, notifier, social.Options{
			FollowNotify:   conf.Notification.FollowEnabled,
			FavoriteNotify: conf.Notification.FavoriteEnabled,
		}),
		Notifications: notifier,
	}

	// 6. 启动 gRPC 健康检查
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpc, err := grpcServer.NewServer(conf.GRPC.Port, store, conf.JWT.Secret)
	if err != nil {
		logger.Log.WithError(err).Fatal("gRPC 服务初始化失败")
	}
	go rpc.WatchHealth(ctx, 10*time.Second)
	go func() {
		logger.Log.WithField("addr", rpc.GetAddr()).Info("gRPC 服务已启动")
		if err := rpc.Start(); err != nil {
			logger.Log.WithError(err).Error("gRPC 服务退出")
		}
	}()

	// 7. 启动 HTTP 服务
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port),
		Handler:      route.SetupRouter(deps),
		ReadTimeout:  conf.Server.ReadTimeout,
		WriteTimeout: conf.Server.WriteTimeout,
	}
	go func() {
		logger.Log.WithField("addr", srv.Addr).Info("HTTP 服务已启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("HTTP 服务异常退出")
		}
	}()

	<-ctx.Done()
	logger.Log.Info("正在关闭服务")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("HTTP 服务关闭失败")
	}
	rpc.Stop()
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
