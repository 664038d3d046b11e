package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/database"
	"terminal-terrace/sse-blog/internal/model"
	dbPkg "terminal-terrace/sse-blog/packages/database"
)

// SetupTestDB creates an isolated, migrated database for one test.
// Without TEST_DATABASE_DSN it uses a fresh SQLite file under t.TempDir().
// With TEST_DATABASE_DSN it creates a throwaway PostgreSQL schema and drops it on cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	var db *gorm.DB
	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		db = openPostgresSchema(t, dsn)
	} else {
		var err error
		db, err = dbPkg.InitSQLite(&dbPkg.SQLiteConfig{
			ServiceName: "sse-blog-test",
			Path:        filepath.Join(t.TempDir(), "test.db"),
			LogLevel:    "silent",
		})
		if err != nil {
			t.Fatalf("Failed to open test database: %v", err)
		}
	}

	if err := model.InitTable(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

// SetupTestStore wraps SetupTestDB in a Store with a short retry backoff
func SetupTestStore(t *testing.T) (*database.Store, *gorm.DB) {
	t.Helper()
	db := SetupTestDB(t)
	return database.NewStore(db, database.WithRetryBackoff(time.Millisecond)), db
}

// openPostgresSchema 在 dsn（key=value 形式）指向的库中建临时 schema，测试结束后删除
func openPostgresSchema(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	admin, err := dbPkg.InitPostgres(&dbPkg.PostgresConfig{ServiceName: "sse-blog-test", DSN: dsn, LogLevel: "silent"})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	schemaName := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := admin.Exec(fmt.Sprintf("CREATE SCHEMA %s", schemaName)).Error; err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	db, err := dbPkg.InitPostgres(&dbPkg.PostgresConfig{
		ServiceName: "sse-blog-test",
		DSN:         dsn,
		SearchPath:  schemaName,
		LogLevel:    "silent",
	})
	if err != nil {
		t.Fatalf("Failed to connect to test schema: %v", err)
	}

	t.Cleanup(func() {
		admin.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schemaName))
		sqlDB, _ := admin.DB()
		sqlDB.Close()
	})
	return db
}

// SetupDryRunPostgres 返回一个不连接数据库的 PostgreSQL 会话和它生成的查询语句
// SQLite 会忽略 FOR UPDATE/FOR SHARE，行锁只能这样检查
func SetupDryRunPostgres(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()

	cfg := dbPkg.GormConfig("silent")
	cfg.DryRun = true
	cfg.DisableAutomaticPing = true
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), cfg)
	if err != nil {
		t.Fatalf("Failed to open dry-run postgres session: %v", err)
	}

	var queries []string
	err = db.Callback().Query().After("gorm:query").Register("testutils:record_sql", func(tx *gorm.DB) {
		queries = append(queries, tx.Statement.SQL.String())
	})
	if err != nil {
		t.Fatalf("Failed to register sql recorder: %v", err)
	}
	return db, &queries
}

// SetupTestRedis 启动进程内的 miniredis 并返回连接它的客户端
func SetupTestRedis(t *testing.T) (*dbPkg.RedisClient, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	if err != nil {
		t.Fatalf("Invalid miniredis port %q: %v", server.Port(), err)
	}

	redisClient, err := dbPkg.InitRedis(&dbPkg.RedisConfig{
		ServiceName: "sse-blog-test",
		Host:        server.Host(),
		Port:        port,
		KeyPrefix:   "sse-blog-test",
	})
	if err != nil {
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		redisClient.Close()
	})
	return redisClient, server
}
