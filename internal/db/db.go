// Package db opens the building/door database. DuckDB is the embedded
// default; SQLite and Postgres are selectable by driver name.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Driver names a supported database.
type Driver string

const (
	DuckDB   Driver = "duckdb"
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

// Config holds database configuration.
type Config struct {
	Driver Driver
	// DSN overrides the file path derived from DataDir and DBName.
	// Required for Postgres.
	DSN     string
	DataDir string
	DBName  string
	// ConnectTimeout bounds the startup ping retries. Zero means one try.
	ConnectTimeout time.Duration
}

// DB is a *sql.DB that knows its dialect.
type DB struct {
	*sql.DB
	Driver Driver
}

// Open opens (creating directories as needed) but does not ping.
func Open(cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DuckDB
	}
	if cfg.DBName == "" {
		cfg.DBName = "door"
	}

	dsn := cfg.DSN
	switch cfg.Driver {
	case DuckDB:
		if dsn == "" {
			dir := filepath.Join(cfg.DataDir, "duckdb")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
			}
			dsn = filepath.Join(dir, cfg.DBName+".duckdb")
		}
	case SQLite:
		if dsn == "" {
			dir := filepath.Join(cfg.DataDir, "sqlite")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
			dsn = "file:" + filepath.Join(dir, cfg.DBName+".db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	case Postgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	conn, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == SQLite {
		// one writer; also keeps :memory: databases on a single connection
		conn.SetMaxOpenConns(1)
	}
	return &DB{DB: conn, Driver: cfg.Driver}, nil
}

// Connect pings with exponential backoff until the database answers or
// timeout elapses.
func (d *DB) Connect(ctx context.Context, timeout time.Duration, log logrus.FieldLogger) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = timeout

	var b backoff.BackOff = bo
	if timeout <= 0 {
		b = &backoff.StopBackOff{}
	}

	return backoff.RetryNotify(func() error {
		return d.PingContext(ctx)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		if log != nil {
			log.WithError(err).WithField("retry_in", next).Warnf("Database %s not ready", d.Driver)
		}
	})
}

// Rebind rewrites ? placeholders to $n for Postgres. Queries in this
// module never contain a literal question mark.
func (d *DB) Rebind(query string) string {
	if d.Driver != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
