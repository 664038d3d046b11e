package user

import (
	"net/http"
	"path/filepath"
	"time"

	"terminal-terrace/sse-blog/internal/dto"
	"terminal-terrace/sse-blog/internal/middleware"
	"terminal-terrace/sse-blog/packages/response"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,max=64"`
	Email           string `json:"email" binding:"required,email,max=120"`
	Password        string `json:"password" binding:"required,min=6,max=100"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=120"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
}

type SettingsRequest struct {
	NotifyFollowed *bool `json:"notify_followed"`
	NotifyComment  *bool `json:"notify_comment"`
	NotifyReply    *bool `json:"notify_reply"`
	ShowEmail      *bool `json:"show_email"`
	ShowFollowing  *bool `json:"show_following"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=100"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=100"`
}

type UserHandler struct {
	service UserService
	admin   AdminService
	// secureCookie 为 true 时登录 cookie 只通过 HTTPS 发送
	secureCookie bool
}

func NewUserHandler(service UserService, admin AdminService, secureCookie bool) *UserHandler {
	return &UserHandler{service: service, admin: admin, secureCookie: secureCookie}
}

// Register POST /api/v1/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	u, err := h.service.Register(c.Request.Context(), &RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, toMe(u))
}

// Login POST /api/v1/auth/login
// 令牌同时写入 access_token cookie
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", result.Token, int(time.Until(result.ExpiresAt).Seconds()), "/", "", h.secureCookie, true)
	dto.SuccessResponse(c, result)
}

// Logout POST /api/v1/auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetCookie("access_token", "", -1, "/", "", h.secureCookie, true)
	dto.SuccessResponse(c, nil)
}

// ForgotPassword POST /api/v1/auth/password/forgot
// 无论邮箱是否注册都返回成功
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// ResetPassword POST /api/v1/auth/password/reset
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// Me GET /api/v1/me
func (h *UserHandler) Me(c *gin.Context) {
	me, err := h.service.Me(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, me)
}

// Profile GET /api/v1/profiles/:username
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), middleware.CurrentUserID(c), c.Param("username"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, profile)
}

// UpdateProfile PUT /api/v1/me/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &ProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, toMe(u))
}

// UploadAvatar 上传头像（multipart 字段 avatar）
// PUT /api/v1/me/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		dto.ErrorResponse(c, response.NewBusinessError(
			response.WithErrorCode(response.ParseError),
			response.WithErrorMessage("请上传头像图片"),
		))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	defer file.Close()

	u, err := h.service.UpdateAvatar(c.Request.Context(), middleware.CurrentUserID(c), file, filepath.Ext(fileHeader.Filename))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, toMe(u))
}

// UpdateSettings PUT /api/v1/me/settings
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	u, err := h.service.UpdateSettings(c.Request.Context(), middleware.CurrentUserID(c), &SettingsInput{
		NotifyFollowed: req.NotifyFollowed,
		NotifyComment:  req.NotifyComment,
		NotifyReply:    req.NotifyReply,
		ShowEmail:      req.ShowEmail,
		ShowFollowing:  req.ShowFollowing,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, toMe(u))
}

// ChangePassword PUT /api/v1/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// Dashboard GET /api/v1/me/dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, d)
}

// ========== 管理后台 ==========

// ListUsers GET /api/v1/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := h.admin.ListUsers(c.Request.Context(), middleware.CurrentUserID(c),
		dto.QueryInt(c, "page", 1), dto.QueryInt(c, "page_size", DefaultPageSize))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, page)
}

// ToggleActive POST /api/v1/admin/users/:id/active
func (h *UserHandler) ToggleActive(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	u, err := h.admin.ToggleActive(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, u)
}

// DeleteUser DELETE /api/v1/admin/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, nil)
}

// Stats GET /api/v1/admin/stats
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.SuccessResponse(c, stats)
}
