// Package db persists repositories and analysed commits in a relational
// store. The engine is picked from the DSN scheme.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// DefaultDSN is used when no DATABASE_URL is configured.
const DefaultDSN = "sqlite://./icds.db"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectDuckDB
	dialectPostgres
)

func (d dialect) driver() string {
	switch d {
	case dialectDuckDB:
		return "duckdb"
	case dialectPostgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// Store is a handle on the database. It is safe for sequential use by one
// writer, which is all the indexer needs.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// parseDSN maps a DSN onto a dialect and the string its driver expects.
func parseDSN(dsn string) (dialect, string, error) {
	switch {
	case dsn == "":
		return parseDSN(DefaultDSN)
	case dsn == "sqlite::memory:":
		return dialectSQLite, ":memory:", nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return 0, "", fmt.Errorf("sqlite DSN %q has no path", dsn)
		}
		return dialectSQLite, path, nil
	case dsn == "duckdb::memory:":
		return dialectDuckDB, "", nil
	case strings.HasPrefix(dsn, "duckdb://"):
		return dialectDuckDB, strings.TrimPrefix(dsn, "duckdb://"), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return dialectPostgres, dsn, nil
	default:
		return 0, "", fmt.Errorf("unsupported database URL %q (want sqlite://, duckdb:// or postgres://)", dsn)
	}
}

// Open connects to the database named by dsn and creates the schema if
// needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	d, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	if d != dialectPostgres && source != "" && source != ":memory:" {
		if dir := filepath.Dir(source); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open(d.driver(), source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.driver(), err)
	}
	if d == dialectSQLite {
		// An in-memory database lives and dies with its connection.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", d.driver(), err)
	}

	s := &Store{db: conn, dialect: d}
	if d == dialectSQLite {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	if err := s.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction that is committed when fn returns nil and
// rolled back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into the $N form postgres expects.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
