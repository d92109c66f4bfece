package datastore

import (
	"io"
	"path/filepath"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwaspark/pwagen/internal/conf"
	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/pwa"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func TestSQLiteManager_Lifecycle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "pwagen.db")
	m, err := NewSQLiteManager(SQLiteConfig{Path: path, Logger: testLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Initialize())
	require.NoError(t, m.Ping(t.Context()))
	assert.Equal(t, conf.DatabaseSQLite, m.Dialect())
	assert.True(t, m.DB().Migrator().HasTable(&entities.PWARecord{}))

	repo := m.PWARepository()
	rec := entities.NewPWARecord("alice", pwa.DefaultConfig())
	require.NoError(t, repo.Create(t.Context(), rec))

	got, err := repo.Get(t.Context(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "My Awesome PWA", got.Name)
}

func TestSQLiteManager_InMemory(t *testing.T) {
	t.Parallel()

	m, err := NewSQLiteManager(SQLiteConfig{Path: ":memory:", Debug: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.Initialize())

	n, err := m.PWARepository().CountByOwner(t.Context(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_UnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := Open(&conf.Settings{Database: conf.DatabaseSettings{Type: "oracle"}}, testLogger())
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}

func TestNewMySQLManager_BadDSN(t *testing.T) {
	t.Parallel()

	_, err := NewMySQLManager(MySQLConfig{DSN: "not a dsn"})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}

func TestMySQLDSN(t *testing.T) {
	t.Parallel()

	dsn := MySQLDSN(conf.MySQLSettings{
		Host:     "db.internal",
		Port:     3307,
		Username: "pwa",
		Password: "p@ss:word",
		Database: "pwas",
	})

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "pwa", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "pwas", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "utf8mb4_unicode_ci", parsed.Collation)
}
