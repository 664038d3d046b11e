package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"terminal-terrace/sse-blog/internal/model"
	userModel "terminal-terrace/sse-blog/internal/model/user"
	"terminal-terrace/sse-blog/packages/database"
	"terminal-terrace/sse-blog/packages/response"
)

func setupStore(t *testing.T, opts ...StoreOption) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.InitSQLite(&database.SQLiteConfig{
		Path:     filepath.Join(t.TempDir(), "store.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, model.InitTable(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	opts = append([]StoreOption{WithRetryBackoff(time.Millisecond)}, opts...)
	return NewStore(db, opts...), db
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pg serialization failure", &pgconn.PgError{Code: "40001"}, response.ErrConflict},
		{"pg deadlock", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), response.ErrConflict},
		{"pg lock not available", &pgconn.PgError{Code: "55P03"}, response.ErrConflict},
		{"pg string too long", &pgconn.PgError{Code: "22001"}, response.ErrInvalidParameter},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, response.ErrStorageUnavailable},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, response.ErrConflict},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, response.ErrConflict},
		{"sqlite cannot open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, response.ErrStorageUnavailable},
		{"network error", &net.OpError{Op: "dial", Err: errors.New("refused")}, response.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}

	assert.NoError(t, Classify(nil))
	assert.Same(t, response.ErrInUse, Classify(response.ErrInUse))

	plain := errors.New("plain")
	assert.Equal(t, plain, Classify(plain))
	assert.True(t, IsDuplicateKey(Classify(gorm.ErrDuplicatedKey)))
}

func TestTransaction_RetriesConflicts(t *testing.T) {
	store, _ := setupStore(t, WithMaxRetries(2))

	attempts := 0
	err := store.Transaction(context.Background(), func(tx *gorm.DB) error {
		attempts++
		if attempts < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestTransaction_GivesUpAfterMaxRetries(t *testing.T) {
	store, _ := setupStore(t, WithMaxRetries(1))

	attempts := 0
	err := store.Transaction(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return &pgconn.PgError{Code: "40001"}
	})
	assert.ErrorIs(t, err, response.ErrConflict)
	assert.Equal(t, 2, attempts)
}

func TestTransaction_DomainErrorsAreNotRetried(t *testing.T) {
	store, db := setupStore(t)

	attempts := 0
	err := store.Transaction(context.Background(), func(tx *gorm.DB) error {
		attempts++
		if err := tx.Create(&userModel.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}).Error; err != nil {
			return err
		}
		return response.ErrForbidden
	})
	assert.ErrorIs(t, err, response.ErrForbidden)
	assert.Equal(t, 1, attempts)

	// 整个事务回滚
	var count int64
	require.NoError(t, db.Model(&userModel.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransaction_DuplicateKeyIsTranslated(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	create := func(tx *gorm.DB) error {
		return tx.Create(&userModel.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}).Error
	}
	require.NoError(t, store.Transaction(ctx, create))
	assert.True(t, IsDuplicateKey(store.Transaction(ctx, create)))
}

func TestPing(t *testing.T) {
	store, db := setupStore(t)
	require.NoError(t, store.Ping(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), response.ErrStorageUnavailable)
}
