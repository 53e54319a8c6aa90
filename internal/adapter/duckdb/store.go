// Package duckdb reads and writes Parquet tables through an embedded DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" driver
)

// Store owns one DuckDB database used as scratch space for Parquet I/O.
type Store struct {
	db          *sql.DB
	compression string
	logger      *slog.Logger
}

// Open connects to DuckDB at path, or to an in-memory database when path is empty.
// compression is one of gzip, snappy, zstd or uncompressed and applies to every write.
func Open(ctx context.Context, path, compression string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	if compression == "" {
		compression = "gzip"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return &Store{
		db:          db,
		compression: strings.ToUpper(compression),
		logger:      logger,
	}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// literal renders s as a single-quoted SQL string.
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ident renders s as a double-quoted SQL identifier.
func ident(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
