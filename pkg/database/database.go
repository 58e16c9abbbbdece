// Package database wraps a single *sql.DB behind the driver-agnostic
// Connection type the account, stats and icon repositories query
// through.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"banchogate/pkg/config"
)

// Connection is a driver-agnostic handle to the SQL database backing
// accounts, stats and main-menu icons.
type Connection struct {
	db     *sql.DB
	driver string
}

// NewConnection opens a connection per cfg and verifies it with a
// ping.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is nil")
	}

	driver := GetDriverName(cfg.Driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime := config.ParseDuration(cfg.ConnMaxLifetime, 0); lifetime > 0 {
		db.SetConnMaxLifetime(lifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	return &Connection{db: db, driver: driver}, nil
}

// GetDriverName maps the config's logical database type to the
// database/sql driver name it's registered under.
func GetDriverName(dbType string) string {
	switch dbType {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return "sqlite3"
	}
}

// DB exposes the underlying *sql.DB for callers that need it directly
// (migrations, bulk loaders).
func (c *Connection) DB() *sql.DB { return c.db }

func (c *Connection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *Connection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// Transaction runs fn inside a transaction, committing if fn returns
// nil and rolling back otherwise.
func (c *Connection) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Ping verifies the connection is alive.
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (c *Connection) Close() error {
	return c.db.Close()
}
