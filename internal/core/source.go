package core

import (
	"context"
	"strings"
)

// Provider opens connections to a row store.
//
// Open makes a single attempt and never retries. Placeholder renders the
// n-th (1-based) positional parameter in the store's dialect, for example
// "$1" or "?". A provider with no parameter dialect returns "" and cannot
// back a [Paginator].
type Provider interface {
	Open(ctx context.Context) (Conn, error)
	Placeholder(n int) string
}

// Conn is one open connection owned by a single traversal.
type Conn interface {
	// Query executes a parameterized SELECT and returns a forward-only cursor.
	Query(ctx context.Context, query string, args ...any) (Cursor, error)

	// Close releases the connection.
	Close(ctx context.Context) error
}

// Cursor is a live handle over an executed query.
type Cursor interface {
	// Next returns the next row, or io.EOF once the result set is exhausted.
	Next(ctx context.Context) (Record, error)

	// Close releases the cursor. It does not close the connection.
	Close() error
}

// Query is query text with its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// text returns the query with surrounding whitespace and a trailing
// semicolon removed so that clauses can be appended to it.
func (q Query) text() string {
	s := strings.TrimSpace(q.SQL)
	s = strings.TrimRight(s, "; \t\n")
	return s
}

// args returns a copy of the arguments with room for extra.
func (q Query) args(extra int) []any {
	out := make([]any, len(q.Args), len(q.Args)+extra)
	copy(out, q.Args)
	return out
}
