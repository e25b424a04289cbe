package pgsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/rowstream/internal/core"
)

// Pool is a provider backed by a connection pool. Each Open acquires one
// pooled connection for the life of a traversal.
type Pool struct {
	pool *pgxpool.Pool
}

// New returns a provider over pool. The caller owns the pool.
func New(pool *pgxpool.Pool) *Pool {
	return &Pool{pool: pool}
}

// Open acquires a connection from the pool.
func (p *Pool) Open(ctx context.Context) (core.Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, &core.ConnectionError{Err: err}
	}
	return &conn{
		pg: c.Conn(),
		release: func(context.Context) error {
			c.Release()
			return nil
		},
	}, nil
}

// Placeholder returns "$n".
func (p *Pool) Placeholder(n int) string {
	return placeholder(n)
}

// Direct is a provider that dials a dedicated connection per Open.
type Direct struct {
	config *pgx.ConnConfig
}

// NewDirect parses connString once. Connections are made on Open.
func NewDirect(connString string) (*Direct, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	return &Direct{config: cfg}, nil
}

// Open dials the database. A failed attempt is not retried.
func (d *Direct) Open(ctx context.Context) (core.Conn, error) {
	c, err := pgx.ConnectConfig(ctx, d.config)
	if err != nil {
		return nil, &core.ConnectionError{Err: err}
	}
	return &conn{pg: c, release: c.Close}, nil
}

// Placeholder returns "$n".
func (d *Direct) Placeholder(n int) string {
	return placeholder(n)
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

type conn struct {
	pg      *pgx.Conn
	release func(context.Context) error
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (core.Cursor, error) {
	rows, err := c.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, c.classify(err)
	}
	return &cursor{conn: c, rows: rows}, nil
}

func (c *conn) Close(ctx context.Context) error {
	return c.release(ctx)
}

// classify reports errors on a connection that is no longer usable as
// connection errors: the connection was closed underneath the query, or the
// server answered with a connection exception (SQLSTATE class 08) or an
// operator shutdown (57P01..57P03).
func (c *conn) classify(err error) error {
	return classify(err, c.pg.IsClosed())
}

func classify(err error, closed bool) error {
	if closed {
		return &core.ConnectionError{Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0") {
			return &core.ConnectionError{Err: err}
		}
	}
	return err
}

type cursor struct {
	conn    *conn
	rows    pgx.Rows
	columns []string
}

func (c *cursor) Next(ctx context.Context) (core.Record, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return core.Record{}, c.conn.classify(err)
		}
		return core.Record{}, io.EOF
	}

	if c.columns == nil {
		fields := c.rows.FieldDescriptions()
		c.columns = make([]string, len(fields))
		for i, f := range fields {
			c.columns[i] = f.Name
		}
	}

	values, err := c.rows.Values()
	if err != nil {
		return core.Record{}, fmt.Errorf("decode row: %w", err)
	}
	for i, v := range values {
		values[i] = normalize(v)
	}
	return core.NewRecord(c.columns, values), nil
}

// Close discards any unread rows. Errors surfaced while draining were
// already reported by Next.
func (c *cursor) Close() error {
	c.rows.Close()
	return nil
}
