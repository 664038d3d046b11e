package authsdk

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

type userContextKey struct{}

// NewContext 将用户信息放入 context
func NewContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// FromContext 取出用户信息，未登录时返回空的 UserContext（UserID=0）
func FromContext(ctx context.Context) *UserContext {
	if user, ok := ctx.Value(userContextKey{}).(*UserContext); ok && user != nil {
		return user
	}
	return &UserContext{}
}

// ExtractBearer 从 "Bearer <token>" 形式的字符串中取出 token
func ExtractBearer(value string) string {
	if strings.HasPrefix(value, "Bearer ") {
		return strings.TrimPrefix(value, "Bearer ")
	}
	return value
}

// ExtractTokenFromContext 从 gRPC context 的 metadata 中提取 JWT token
// 支持两种方式：
// 1. authorization header (Bearer token)
// 2. x-access-token header
func ExtractTokenFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ErrNoToken
	}

	if values := md.Get("authorization"); len(values) > 0 {
		return ExtractBearer(values[0]), nil
	}

	if values := md.Get("x-access-token"); len(values) > 0 {
		return values[0], nil
	}

	return "", ErrNoToken
}

// GetUserFromContext 从 gRPC context 获取用户信息
// 如果没有 token 或解析失败，返回空的 UserContext（UserID=0）
func GetUserFromContext(ctx context.Context, secret string) *UserContext {
	token, err := ExtractTokenFromContext(ctx)
	if err != nil {
		return &UserContext{}
	}

	user, err := ParseToken(token, secret)
	if err != nil {
		return &UserContext{}
	}

	return user
}
