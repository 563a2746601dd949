package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/metasql/internal/querysql"
)

// Store is a builder.Connection backed by database/sql.
type Store struct {
	db      *sql.DB
	dialect querysql.Dialect
}

// drivers maps canonical dialect names to database/sql driver names.
var drivers = map[string]string{
	"mysql":    "mysql",
	"postgres": "postgres",
	"sqlite":   "sqlite3",
}

// Open connects to the database for dialect using dsn.
//
// The connection is verified with a ping. SQLite databases are limited to
// one open connection, so ":memory:" databases stay a single database,
// and get the pragmas below:
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	d, err := querysql.New(dialect)
	if err != nil {
		return nil, err
	}
	dsn, err = NormalizeDSN(d.Name(), dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(drivers[d.Name()], dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d.Name() == "sqlite" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &Store{db: db, dialect: d}, nil
}

// New wraps an existing database handle. The caller keeps ownership of db
// configuration; Close still closes it.
func New(db *sql.DB, dialect string) (*Store, error) {
	d, err := querysql.New(dialect)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d}, nil
}

// NormalizeDSN validates dsn for dialect and returns the form the driver
// expects.
func NormalizeDSN(dialect, dsn string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("empty %s DSN", dialect)
	}
	switch dialect {
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		// Multi-statement DDL is sent in one Exec.
		cfg.MultiStatements = true
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	case "postgres":
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			kv, err := pq.ParseURL(dsn)
			if err != nil {
				return "", fmt.Errorf("invalid postgres DSN: %w", err)
			}
			return kv, nil
		}
		return dsn, nil
	default:
		return dsn, nil
	}
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the dialect the store was opened for.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// EscapeLiteral escapes a string literal body for the store's dialect.
func (s *Store) EscapeLiteral(v string) string {
	return s.dialect.EscapeLiteral(v)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
