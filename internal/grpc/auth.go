package grpc

import (
	"context"

	"google.golang.org/grpc"

	authsdk "terminal-terrace/sse-blog/packages/auth-sdk"
)

// AuthInterceptor 从 metadata 解析 JWT 并把用户信息放入 context
// 没有 token 或解析失败时放入空的 UserContext（UserID=0），由具体服务决定是否拒绝
func AuthInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(authsdk.NewContext(ctx, authsdk.GetUserFromContext(ctx, secret)), req)
	}
}
