package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"terminal-terrace/sse-blog/internal/testutils"
	authsdk "terminal-terrace/sse-blog/packages/auth-sdk"
)

const testSecret = "test-secret"

func TestHealth_FollowsStore(t *testing.T) {
	store, db := testutils.SetupTestStore(t)

	server, err := NewServer(0, store, testSecret)
	require.NoError(t, err)
	go server.Start()
	defer server.Stop()

	addr := fmt.Sprintf("127.0.0.1:%d", server.listener.Addr().(*net.TCPAddr).Port)
	conn, err := grpc.NewClient("passthrough:///"+addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	server.checkHealth(ctx)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestAuthInterceptor(t *testing.T) {
	token, err := authsdk.GenerateToken(authsdk.UserContext{UserID: 7, Username: "alice"}, testSecret, time.Hour)
	require.NoError(t, err)

	var seen *authsdk.UserContext
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = authsdk.FromContext(ctx)
		return nil, nil
	}
	interceptor := AuthInterceptor(testSecret)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{}, handler)
	require.NoError(t, err)
	assert.Equal(t, uint(7), seen.UserID)
	assert.Equal(t, "alice", seen.Username)

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	require.NoError(t, err)
	assert.False(t, seen.IsAuthenticated(), "anonymous without token")
}
