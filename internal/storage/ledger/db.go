package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the ledger backend. Path is used by SQLite, DSN by Postgres.
type Config struct {
	Driver string
	Path   string
	DSN    string
}

// Connect opens the database and creates the ledger tables when absent.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case "", DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err = sqlx.ConnectContext(ctx, DriverSQLite, sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		// One writer; a second connection would also lose :memory: databases.
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sqlx.ConnectContext(ctx, DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_loc=UTC"
}
