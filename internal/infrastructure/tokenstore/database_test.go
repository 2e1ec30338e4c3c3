package tokenstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopnotify/backend/internal/infrastructure/config"
)

func newSQLiteStore(t *testing.T) *DatabaseStore {
	t.Helper()
	db, err := OpenDatabase(config.DatabaseStoreConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "tokens.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop(), "error")
	require.NoError(t, err)

	store := NewDatabaseStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDatabaseStore_SQLite(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Save(ctx, sampleTokens()))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleTokens(), loaded)

	shorter := sampleTokens()[:1]
	require.NoError(t, store.Save(ctx, shorter))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, shorter, loaded)

	require.NoError(t, store.Save(ctx, nil))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestOpenDatabase_UnsupportedDriver(t *testing.T) {
	_, err := OpenDatabase(config.DatabaseStoreConfig{Driver: "oracle"}, zap.NewNop(), "info")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func newMockStore(t *testing.T) (*DatabaseStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewDatabaseStore(db), mock
}

func TestDatabaseStore_LoadFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "device_tokens"`).WillReturnError(errors.New("relation does not exist"))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load device_tokens")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_SaveRollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "device_tokens"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "device_tokens"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Save(context.Background(), sampleTokens())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStore_SaveRollsBackOnDeleteFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "device_tokens"`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := store.Save(context.Background(), sampleTokens())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
