package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisClient_Key(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		parts  []any
		want   string
	}{
		{"with prefix", "sse-blog", []any{"notification", "unread", uint(7)}, "sse-blog:notification:unread:7"},
		{"no prefix", "", []any{"notification", "unread", 7}, "notification:unread:7"},
		{"prefix only", "sse-blog", nil, "sse-blog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &RedisClient{prefix: tt.prefix}
			assert.Equal(t, tt.want, c.Key(tt.parts...))
		})
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	c := &PostgresConfig{Username: "u", Password: "p", Database: "blog"}
	setPostgresDefaults(c)
	assert.Equal(t, "host=localhost user=u password=p dbname=blog port=5432 sslmode=disable", c.dsn())

	c = &PostgresConfig{DSN: "host=db user=u dbname=blog", SearchPath: "test_x"}
	assert.Equal(t, "host=db user=u dbname=blog search_path=test_x", c.dsn())
}
