//go:build integration

package containers

import (
	"context"
	"fmt"
	"regexp"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

var validTableNameRe = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

// MySQLContainer is a running MySQL server with an open GORM handle.
type MySQLContainer struct {
	container *mysql.MySQLContainer
	db        *gorm.DB
	dsn       string
}

// MySQLConfig configures NewMySQLContainer.
type MySQLConfig struct {
	Image    string
	Database string
	Username string
	Password string
}

// DefaultMySQLConfig returns the settings used when NewMySQLContainer gets nil.
func DefaultMySQLConfig() MySQLConfig {
	return MySQLConfig{
		Image:    "mysql:8.0",
		Database: "pwagen_test",
		Username: "pwagen",
		Password: "pwagen",
	}
}

// NewMySQLContainer starts MySQL and connects to it with GORM.
func NewMySQLContainer(ctx context.Context, config *MySQLConfig) (*MySQLContainer, error) {
	if config == nil {
		def := DefaultMySQLConfig()
		config = &def
	}

	c, err := mysql.Run(ctx, config.Image,
		mysql.WithDatabase(config.Database),
		mysql.WithUsername(config.Username),
		mysql.WithPassword(config.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start MySQL container: %w", err)
	}

	raw, err := c.ConnectionString(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	parsed, err := mysqldriver.ParseDSN(raw)
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	parsed.ParseTime = true
	parsed.Loc = time.UTC
	dsn := parsed.FormatDSN()

	var db *gorm.DB
	err = RetryWithBackoff(ctx, 5, 200*time.Millisecond, 2*time.Second, func() error {
		var openErr error
		db, openErr = gorm.Open(gormmysql.Open(dsn), &gorm.Config{
			Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
		})
		return openErr
	})
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &MySQLContainer{container: c, db: db, dsn: dsn}, nil
}

// DB returns the shared GORM handle. Tests must not close it.
func (c *MySQLContainer) DB() *gorm.DB { return c.db }

// DSN returns a go-sql-driver DSN with parseTime enabled.
func (c *MySQLContainer) DSN() string { return c.dsn }

// Reset truncates the given tables.
func (c *MySQLContainer) Reset(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if !validTableNameRe.MatchString(table) {
			return fmt.Errorf("invalid table name: %s", table)
		}
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM `%s`", table)).Error; err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
		}
		return nil
	})
}

// Terminate closes the connection pool and removes the container.
func (c *MySQLContainer) Terminate(ctx context.Context) error {
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		c.db = nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container: %w", err)
	}
	return nil
}
