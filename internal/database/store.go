package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/logger"
	"terminal-terrace/sse-blog/packages/response"
)

// Store 数据访问入口，由进程创建并注入各服务
type Store struct {
	db         *gorm.DB
	maxRetries int
	backoff    time.Duration
}

type StoreOption func(*Store)

// WithMaxRetries 并发冲突时的最大重试次数（不含首次执行）
func WithMaxRetries(n int) StoreOption {
	return func(s *Store) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryBackoff 重试间隔基数，第 n 次重试等待 n*backoff
func WithRetryBackoff(d time.Duration) StoreOption {
	return func(s *Store) {
		s.backoff = d
	}
}

func NewStore(db *gorm.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:         db,
		maxRetries: 2,
		backoff:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB 返回绑定 ctx 的连接，用于只读查询和事务外的单条语句
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction 在一个事务中执行 fn，失败时整体回滚
// fn 可能被重复执行，闭包内的状态需要在每次执行开始时重置
// 业务错误原样返回且不重试；并发冲突重试 maxRetries 次后返回 ErrConflict
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	for attempt := 0; ; attempt++ {
		err := Classify(s.db.WithContext(ctx).Transaction(fn))
		if err == nil || !errors.Is(err, response.ErrConflict) || attempt >= s.maxRetries {
			return err
		}

		logger.Log.WithField("attempt", attempt+1).WithError(err).Warn("事务冲突，准备重试")

		timer := time.NewTimer(s.backoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// Ping 检查存储是否可达
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Classify(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return response.NewBusinessError(
			response.WithErrorCode(response.StorageUnavailable),
			response.WithErrorMessage("存储服务不可用"),
			response.WithError(err),
		)
	}
	return nil
}
