// Package datastore opens and migrates the relational store behind the
// record repository.
package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pwaspark/pwagen/internal/conf"
	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/datastore/repository"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/logger"
)

// Manager owns a GORM connection and the schema it serves.
type Manager struct {
	db      *gorm.DB
	dialect string
	log     logger.Logger
}

// SQLiteConfig configures NewSQLiteManager.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory DB.
	Path   string
	Debug  bool
	Logger logger.Logger
}

// MySQLConfig configures NewMySQLManager.
type MySQLConfig struct {
	DSN    string
	Debug  bool
	Logger logger.Logger
}

// NewSQLiteManager opens (creating if needed) a SQLite database.
func NewSQLiteManager(cfg SQLiteConfig) (*Manager, error) {
	log := moduleLogger(cfg.Logger)

	dsn := "file::memory:?cache=private&_foreign_keys=ON"
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.New(err).
					Component("datastore").
					Category(errors.CategoryDatabase).
					Context("path", cfg.Path).
					Build()
			}
		}
		dsn = cfg.Path + "?_foreign_keys=ON&_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger(log, cfg.Debug)})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY and keeps
	// in-memory databases alive across queries.
	sqlDB.SetMaxOpenConns(1)

	log.Info("sqlite database opened", logger.String("path", cfg.Path))
	return &Manager{db: db, dialect: conf.DatabaseSQLite, log: log}, nil
}

// NewMySQLManager connects to MySQL. The DSN is normalized so time columns
// scan into time.Time in UTC.
func NewMySQLManager(cfg MySQLConfig) (*Manager, error) {
	log := moduleLogger(cfg.Logger)

	parsed, err := mysqldriver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	parsed.ParseTime = true
	parsed.Loc = time.UTC

	db, err := gorm.Open(mysql.Open(parsed.FormatDSN()), &gorm.Config{Logger: newGormLogger(log, cfg.Debug)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql at %s: %w", parsed.Addr, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get mysql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("mysql database connected",
		logger.String("addr", parsed.Addr),
		logger.String("database", parsed.DBName))
	return &Manager{db: db, dialect: conf.DatabaseMySQL, log: log}, nil
}

// MySQLDSN builds a driver DSN from settings.
func MySQLDSN(s conf.MySQLSettings) string {
	c := mysqldriver.NewConfig()
	c.User = s.Username
	c.Passwd = s.Password
	c.Net = "tcp"
	c.Addr = s.Host + ":" + strconv.Itoa(s.Port)
	c.DBName = s.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.Collation = "utf8mb4_unicode_ci"
	return c.FormatDSN()
}

// Open creates the manager selected by settings.
func Open(settings *conf.Settings, log logger.Logger) (*Manager, error) {
	switch settings.Database.Type {
	case conf.DatabaseSQLite:
		return NewSQLiteManager(SQLiteConfig{
			Path:   settings.Database.Path,
			Debug:  settings.Database.Debug,
			Logger: log,
		})
	case conf.DatabaseMySQL:
		return NewMySQLManager(MySQLConfig{
			DSN:    MySQLDSN(settings.Database.MySQL),
			Debug:  settings.Database.Debug,
			Logger: log,
		})
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Database.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Initialize migrates the schema.
func (m *Manager) Initialize() error {
	if err := m.db.AutoMigrate(&entities.PWARecord{}); err != nil {
		return fmt.Errorf("failed to migrate pwa_records: %w", err)
	}
	m.log.Debug("schema migrated", logger.String("dialect", m.dialect))
	return nil
}

// DB returns the underlying GORM handle.
func (m *Manager) DB() *gorm.DB { return m.db }

// Dialect returns conf.DatabaseSQLite or conf.DatabaseMySQL.
func (m *Manager) Dialect() string { return m.dialect }

// PWARepository returns a repository bound to this connection.
func (m *Manager) PWARepository() repository.PWARepository {
	return repository.NewPWARepository(m.db)
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func moduleLogger(l logger.Logger) logger.Logger {
	if l == nil {
		l = logger.Discard()
	}
	return l.Module("datastore")
}
