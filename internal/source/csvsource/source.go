// Package csvsource serves a CSV file as a row source.
//
// Every connection opens the file afresh. The header row names the
// columns; each following line becomes one record whose cells are strings,
// with empty cells read as NULL. There is no query language: the query
// text must be empty or "*", and the source has no LIMIT/OFFSET dialect,
// so it cannot back a paginator.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/rowstream/internal/core"
)

// ErrUnsupportedQuery is returned for query text other than "" or "*".
var ErrUnsupportedQuery = errors.New("csv source only supports reading every row")

// Provider opens connections to one CSV file.
type Provider struct {
	path  string
	comma rune
}

// Option configures a Provider.
type Option func(*Provider)

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) Option {
	return func(p *Provider) {
		p.comma = r
	}
}

// New returns a provider for the file at path. The file is not opened
// until a connection is requested.
func New(path string, opts ...Option) *Provider {
	p := &Provider{path: path, comma: ','}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the file path.
func (p *Provider) Path() string {
	return p.path
}

// Open opens the file.
func (p *Provider) Open(ctx context.Context) (core.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	return &conn{file: f, comma: p.comma}, nil
}

// Placeholder returns "": CSV files have no bounded query dialect.
func (p *Provider) Placeholder(int) string {
	return ""
}

type conn struct {
	file   *os.File
	comma  rune
	cursor *cursor
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (core.Cursor, error) {
	q := strings.TrimSpace(query)
	if q != "" && q != "*" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuery, query)
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("%w: arguments are not supported", ErrUnsupportedQuery)
	}
	if c.cursor != nil {
		return nil, errors.New("csv connection already has an open cursor")
	}
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind csv: %w", err)
	}

	r, err := clean(c.file)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	reader := csv.NewReader(r)
	reader.Comma = c.comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	c.cursor = &cursor{conn: c, reader: reader, columns: columns}
	return c.cursor, nil
}

func (c *conn) Close(ctx context.Context) error {
	return c.file.Close()
}

type cursor struct {
	conn    *conn
	reader  *csv.Reader
	columns []string
}

func (c *cursor) Next(ctx context.Context) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	fields, err := c.reader.Read()
	if err == io.EOF {
		return core.Record{}, io.EOF
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("read csv: %w", err)
	}

	values := make([]any, len(fields))
	for i, f := range fields {
		if f != "" {
			values[i] = f
		}
	}
	return core.NewRecord(c.columns, values), nil
}

func (c *cursor) Close() error {
	c.conn.cursor = nil
	return nil
}
