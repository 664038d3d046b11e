package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteConfig 单机开发与测试用的 SQLite 配置
type SQLiteConfig struct {
	ServiceName string
	Path        string        // 数据库文件路径
	LogLevel    string        // 日志级别: silent, error, warn, info
	BusyTimeout time.Duration // 锁等待超时
}

// InitSQLite 打开 SQLite 数据库
// SQLite 只允许单写者，连接池限制为 1，避免 database is locked
func InitSQLite(config *SQLiteConfig) (*gorm.DB, error) {
	if config == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if config.Path == "" {
		config.Path = "sse-blog.db"
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d&_txlock=immediate",
		config.Path, config.BusyTimeout.Milliseconds())

	db, err := gorm.Open(sqlite.Open(dsn), GormConfig(config.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	logrus.WithFields(logrus.Fields{
		"service": serviceName(config.ServiceName),
		"path":    config.Path,
	}).Info("SQLite 打开成功")
	return db, nil
}
