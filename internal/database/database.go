package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"terminal-terrace/sse-blog/config"
	"terminal-terrace/sse-blog/internal/model"
	"terminal-terrace/sse-blog/packages/database"
)

const serviceName = "sse-blog"

// Open 按配置打开数据库并迁移表结构
func Open(conf config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := conf.LogLevel
	if logLevel == "" {
		logLevel = "info"
	}

	var (
		db  *gorm.DB
		err error
	)
	switch conf.Driver {
	case "sqlite":
		db, err = database.InitSQLite(&database.SQLiteConfig{
			ServiceName: serviceName,
			Path:        conf.Path,
			LogLevel:    logLevel,
		})
	case "postgres", "":
		db, err = database.InitPostgres(&database.PostgresConfig{
			ServiceName:     serviceName,
			Username:        conf.Username,
			Password:        conf.Password,
			Host:            conf.Host,
			Port:            conf.Port,
			Database:        conf.Database,
			SSLMode:         conf.SSLMode,
			LogLevel:        logLevel,
			MaxIdleConns:    conf.MaxIdleConns,
			MaxOpenConns:    conf.MaxOpenConns,
			ConnMaxLifetime: time.Duration(conf.MaxLifetime) * time.Second,
		})
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", conf.Driver)
	}
	if err != nil {
		return nil, err
	}

	// 初始化数据库表
	if err := model.InitTable(db); err != nil {
		return nil, fmt.Errorf("初始化数据表失败: %w", err)
	}
	return db, nil
}

// OpenRedis 按配置连接 Redis，未启用时返回 nil
func OpenRedis(conf config.RedisConfig) (*database.RedisClient, error) {
	if !conf.Enabled {
		return nil, nil
	}
	return database.InitRedis(&database.RedisConfig{
		ServiceName: serviceName,
		Host:        conf.Host,
		Port:        conf.Port,
		Password:    conf.Password,
		DB:          conf.DB,
		PoolSize:    conf.PoolSize,
		KeyPrefix:   conf.KeyPrefix,
	})
}
