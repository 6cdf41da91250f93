package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Connection pool bounds for the postgres backend.
const (
	pgMaxOpenConns    = 10
	pgMinIdleConns    = 2
	pgConnMaxIdleTime = 5 * time.Minute
)

// OpenPostgres opens a PostgreSQL-backed store with a bounded connection
// pool. Per-call command timeouts are applied by the Manager, not here.
func OpenPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMinIdleConns)
	db.SetConnMaxIdleTime(pgConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return newSQLStore(db, postgresDialect)
}
