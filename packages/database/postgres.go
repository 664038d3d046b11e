package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresConfig PostgreSQL 配置
// DSN 非空时直接使用，忽略 Host/Port 等分项
type PostgresConfig struct {
	ServiceName     string
	DSN             string
	Username        string
	Password        string
	Host            string
	Port            int
	Database        string
	SSLMode         bool
	SearchPath      string // 测试时指向临时 schema
	LogLevel        string // silent, error, warn, info
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// InitPostgres 打开 PostgreSQL 并确认连接可用
func InitPostgres(config *PostgresConfig) (*gorm.DB, error) {
	if config == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	setPostgresDefaults(config)

	db, err := gorm.Open(postgres.Open(config.dsn()), GormConfig(config.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库不可达: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"service":  serviceName(config.ServiceName),
		"database": config.Database,
	}).Info("数据库连接成功")
	return db, nil
}

func setPostgresDefaults(c *PostgresConfig) {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 100
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}

func (c *PostgresConfig) dsn() string {
	var parts []string
	if c.DSN != "" {
		parts = append(parts, c.DSN)
	} else {
		sslmode := "disable"
		if c.SSLMode {
			sslmode = "require"
		}
		parts = append(parts, fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			c.Host, c.Username, c.Password, c.Database, c.Port, sslmode))
	}
	if c.SearchPath != "" {
		parts = append(parts, "search_path="+c.SearchPath)
	}
	return strings.Join(parts, " ")
}
