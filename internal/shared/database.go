package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL backend behind a [Database].
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Querier is the subset of [Database] and [Tx] used by repositories.
//
// Queries are written with ? placeholders; Postgres connections rewrite them to $N.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database wraps *sql.DB with dialect-aware placeholder rewriting.
type Database struct {
	DB      *sql.DB
	Dialect Dialect
}

var (
	_ Querier = (*Database)(nil)
	_ Querier = (*Tx)(nil)
)

// ParseDatabaseURL maps a database URL to a driver dialect and DSN.
//
// Accepted forms:
//   - postgres://... and postgresql://... (pgx)
//   - sqlite:///relative.db, sqlite:////absolute.db, sqlite:// (in-memory)
//   - a bare file path or ":memory:" (sqlite)
func ParseDatabaseURL(url string) (Dialect, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return "", "", fmt.Errorf("%w: empty database url", ErrInvalidConfig)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	case url == "sqlite://":
		return DialectSQLite, ":memory:", nil
	case strings.HasPrefix(url, "sqlite:///"):
		return DialectSQLite, strings.TrimPrefix(url, "sqlite:///"), nil
	case strings.Contains(url, "://"):
		return "", "", fmt.Errorf("%w: unsupported database url scheme in %q", ErrInvalidConfig, url)
	default:
		return DialectSQLite, url, nil
	}
}

// NewDatabase opens a connection to the database at the specified url.
// The url can be ":memory:" for an in-memory SQLite database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(url string) (*Database, error) {
	dialect, dsn, err := ParseDatabaseURL(url)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open("pgx", dsn)
	default:
		db, err = sql.Open("sqlite3", sqliteDSN(dsn))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every new connection to :memory: is a fresh, empty database.
	if dialect == DialectSQLite && strings.HasPrefix(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, Dialect: dialect}, nil
}

// sqliteDSN appends the connection parameters every SQLite connection needs.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1&_busy_timeout=5000&_txlock=immediate"
}

// ConfigureDatabase sets connection pool settings for the database.
// In-memory SQLite databases keep their single connection.
func ConfigureDatabase(db *Database, maxOpenConns, maxIdleConns int) {
	if db.Dialect == DialectSQLite && db.DB.Stats().MaxOpenConnections == 1 {
		return
	}
	if maxOpenConns > 0 {
		db.DB.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.DB.SetMaxIdleConns(maxIdleConns)
	}
}

func (d *Database) Close() error { return d.DB.Close() }

func (d *Database) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, rewrite(d.Dialect, query), args...)
}

func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, rewrite(d.Dialect, query), args...)
}

func (d *Database) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, rewrite(d.Dialect, query), args...)
}

// Tx wraps *sql.Tx with the same placeholder rewriting as [Database].
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, rewrite(t.dialect, query), args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, rewrite(t.dialect, query), args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, rewrite(t.dialect, query), args...)
}

// WithTx executes fn inside a transaction.
// If fn returns an error the transaction is rolled back and the error returned unchanged.
//
// fn must issue every statement through the given [Tx]; in-memory databases hold a single connection.
func (d *Database) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrStorage, err)
	}

	if err := fn(&Tx{tx: sqlTx, dialect: d.Dialect}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY constraint.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func rewrite(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	return rewritePlaceholders(query)
}

// rewritePlaceholders converts ? to $1, $2, ... for Postgres.
// Respects single-quoted string literals and escaped quotes ('').
func rewritePlaceholders(query string) string {
	var buf strings.Builder
	buf.Grow(len(query) + 16)
	n := 1
	inStr := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			if inStr && i+1 < len(query) && query[i+1] == '\'' {
				buf.WriteString("''")
				i++
				continue
			}
			inStr = !inStr
			buf.WriteByte(c)
		case c == '?' && !inStr:
			buf.WriteByte('$')
			buf.WriteString(strconv.Itoa(n))
			n++
		default:
			buf.WriteByte(c)
		}
	}
	return buf.String()
}
