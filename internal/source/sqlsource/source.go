// Package sqlsource serves a database/sql database as a row source. The
// sqlite3 driver is registered by this package.
//
// Every traversal takes its own connection from the *sql.DB. For SQLite
// that means a plain ":memory:" DSN gives each traversal an empty
// database; use a shared-cache DSN such as
// "file:people?mode=memory&cache=shared" to share one in-memory database.
package sqlsource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"

	"github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/rowstream/internal/core"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "sqlite3"

// Provider opens connections from a *sql.DB.
type Provider struct {
	db *sql.DB
}

// Open opens a SQLite database. Nothing is dialled until the first
// connection is requested.
func Open(dsn string) (*Provider, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", DriverName, err)
	}
	return &Provider{db: db}, nil
}

// New returns a provider over an existing handle. The caller owns db.
func New(db *sql.DB) *Provider {
	return &Provider{db: db}
}

// DB returns the underlying handle.
func (p *Provider) DB() *sql.DB {
	return p.db
}

// Close closes the underlying handle.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Open reserves a connection for one traversal.
func (p *Provider) Open(ctx context.Context) (core.Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, &core.ConnectionError{Err: err}
	}
	return &conn{c: c}, nil
}

// Placeholder returns "?".
func (p *Provider) Placeholder(int) string {
	return "?"
}

type conn struct {
	c *sql.Conn
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (core.Cursor, error) {
	rows, err := c.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, classify(err)
	}
	return &cursor{rows: rows, columns: columns}, nil
}

func (c *conn) Close(context.Context) error {
	return c.c.Close()
}

type cursor struct {
	rows    *sql.Rows
	columns []string
}

func (c *cursor) Next(ctx context.Context) (core.Record, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return core.Record{}, classify(err)
		}
		return core.Record{}, io.EOF
	}

	values := make([]any, len(c.columns))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		return core.Record{}, fmt.Errorf("scan row: %w", err)
	}
	return core.NewRecord(c.columns, values), nil
}

func (c *cursor) Close() error {
	return c.rows.Close()
}

// classify marks errors that mean the connection itself is unusable.
func classify(err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return &core.ConnectionError{Err: err}
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrAuth:
			return &core.ConnectionError{Err: err}
		}
	}
	return err
}
