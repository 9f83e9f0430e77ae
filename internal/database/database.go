package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/codeguardian-ai/codeguardian/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the generic storage interface used by the store layer.
// Implementations exist for SQLite (default) and MySQL.
type DB interface {
	// Select executes a query and scans all rows into dest (pointer to a
	// slice of db-tagged structs).
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Get executes a query expected to return a single row and scans it into
	// dest. Returns sql.ErrNoRows when nothing matches.
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...interface{}) error

	// Insert inserts a db-tagged struct into table and returns the
	// auto-assigned row ID (0 for tables with application-assigned keys).
	Insert(ctx context.Context, table string, record interface{}) (int64, error)

	// Update writes record's db-tagged fields to rows matching where.
	Update(ctx context.Context, table string, record interface{}, where string, args ...interface{}) error

	// Migrate applies pending schema migrations in filename order.
	Migrate(ctx context.Context) error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error

	// Driver returns the backend name: "sqlite" or "mysql".
	Driver() string
}

// New returns a DB implementation matching cfg.Driver.
// SQLite is the default when the driver is empty.
func New(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite", "sqlite3", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (supported: sqlite, mysql)", cfg.Driver)
	}
}
