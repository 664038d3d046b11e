package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisConfig Redis 配置
type RedisConfig struct {
	ServiceName  string
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxConnAge   time.Duration
	DialTimeout  time.Duration
	KeyPrefix    string // 所有键的命名空间，多个服务共用一个库时避免冲突
}

// RedisClient Redis 客户端封装，键统一经 Key 加上命名空间
type RedisClient struct {
	*redis.Client
	prefix string
}

// InitRedis 连接 Redis，连不上时返回错误，由调用方决定是否降级
func InitRedis(config *RedisConfig) (*RedisClient, error) {
	if config == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	setRedisDefaults(config)

	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:        config.Password,
		DB:              config.DB,
		PoolSize:        config.PoolSize,
		MinIdleConns:    config.MinIdleConns,
		ConnMaxLifetime: config.MaxConnAge,
		DialTimeout:     config.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"service": serviceName(config.ServiceName),
		"addr":    client.Options().Addr,
		"prefix":  config.KeyPrefix,
	}).Info("Redis连接成功")

	return &RedisClient{Client: client, prefix: config.KeyPrefix}, nil
}

// Key 拼接带命名空间的键，如 Key("notification", "unread", 7) => "sse-blog:notification:unread:7"
func (c *RedisClient) Key(parts ...any) string {
	segs := make([]string, 0, len(parts)+1)
	if c.prefix != "" {
		segs = append(segs, c.prefix)
	}
	for _, p := range parts {
		segs = append(segs, fmt.Sprint(p))
	}
	return strings.Join(segs, ":")
}

func setRedisDefaults(c *RedisConfig) {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 2
	}
	if c.MaxConnAge == 0 {
		c.MaxConnAge = time.Hour
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 3 * time.Second
	}
}
