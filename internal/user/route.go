package user

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册账号、个人资料与用户管理路由
func RegisterRoutes(r *gin.RouterGroup, h *UserHandler, auth, optionalAuth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/password/forgot", h.ForgotPassword)
		authGroup.POST("/password/reset", h.ResetPassword)
	}

	r.GET("/profiles/:username", optionalAuth, h.Profile)

	me := r.Group("/me", auth)
	{
		me.GET("", h.Me)
		me.GET("/dashboard", h.Dashboard)
		me.PUT("/profile", h.UpdateProfile)
		me.PUT("/avatar", h.UploadAvatar)
		me.PUT("/settings", h.UpdateSettings)
		me.PUT("/password", h.ChangePassword)
	}

	admin := r.Group("/admin", auth)
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:id/active", h.ToggleActive)
		admin.DELETE("/users/:id", h.DeleteUser)
	}
}
