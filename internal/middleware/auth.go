package middleware

import (
	"strings"

	"terminal-terrace/sse-blog/internal/dto"
	authsdk "terminal-terrace/sse-blog/packages/auth-sdk"
	"terminal-terrace/sse-blog/packages/response"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// parseToken 从 cookie 或 Authorization header 中解析 token
func parseToken(c *gin.Context, secret string) (*authsdk.UserContext, error) {
	tokenString, err := c.Cookie("access_token")
	if err != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return nil, authsdk.ErrNoToken
		}
		tokenString = authsdk.ExtractBearer(authHeader)
	}
	return authsdk.ParseToken(tokenString, secret)
}

// JWTAuth JWT 认证中间件（必需认证）
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := parseToken(c, secret)
		if err != nil {
			msg := "无效的认证令牌"
			switch err {
			case authsdk.ErrNoToken:
				msg = "未提供认证令牌"
			case authsdk.ErrExpiredToken:
				msg = "认证令牌已过期"
			}
			dto.ErrorResponse(c, response.NewBusinessError(
				response.WithErrorCode(response.Unauthorized),
				response.WithErrorMessage(msg),
			))
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalJWTAuth 可选的 JWT 认证中间件（不强制要求认证，但如果有token则解析）
func OptionalJWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := parseToken(c, secret); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

func setUser(c *gin.Context, user *authsdk.UserContext) {
	c.Set(userContextKey, user)
	c.Set("user_id", user.UserID)
	c.Request = c.Request.WithContext(authsdk.NewContext(c.Request.Context(), user))
}

// CurrentUser 当前登录用户，未登录时 UserID 为 0
func CurrentUser(c *gin.Context) *authsdk.UserContext {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*authsdk.UserContext); ok {
			return user
		}
	}
	return &authsdk.UserContext{}
}

// CurrentUserID 当前登录用户ID，未登录时为 0
func CurrentUserID(c *gin.Context) uint {
	return CurrentUser(c).UserID
}
