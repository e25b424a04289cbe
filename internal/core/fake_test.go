package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// fakeProvider is an in-memory row source that records every open and close.
type fakeProvider struct {
	columns []string
	rows    [][]any

	openErr   error
	queryErr  error
	nextErr   error
	failAfter int // rows served before nextErr; used only when nextErr != nil
	closeErr  error
	noDialect bool

	mu           sync.Mutex
	opens        int
	connCloses   int
	cursorOpens  int
	cursorCloses int
	nexts        int
	queries      []string
	args         [][]any
}

func newFake(rows ...[]any) *fakeProvider {
	return &fakeProvider{columns: []string{"id", "age"}, rows: rows}
}

// people is the three-row data set used across the tests.
func people() *fakeProvider {
	return newFake(
		[]any{1, 30},
		[]any{2, 20},
		[]any{3, 40},
	)
}

func (p *fakeProvider) Open(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.opens++
	return &fakeConn{p: p}, nil
}

func (p *fakeProvider) Placeholder(n int) string {
	if p.noDialect {
		return ""
	}
	return fmt.Sprintf("$%d", n)
}

func (p *fakeProvider) counts() (opens, connCloses, cursorOpens, cursorCloses int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens, p.connCloses, p.cursorOpens, p.cursorCloses
}

// leaked reports connections or cursors opened but not closed.
func (p *fakeProvider) leaked() bool {
	o, oc, c, cc := p.counts()
	return o != oc || c != cc
}

type fakeConn struct {
	p      *fakeProvider
	closed bool
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...any) (Cursor, error) {
	p := c.p
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	p.args = append(p.args, args)
	if p.queryErr != nil {
		return nil, p.queryErr
	}

	rows := p.rows
	if strings.Contains(query, "\nLIMIT ") && len(args) >= 2 {
		limit, offset := args[len(args)-2].(int), args[len(args)-1].(int)
		if offset > len(rows) {
			offset = len(rows)
		}
		end := min(offset+limit, len(rows))
		rows = rows[offset:end]
	}

	p.cursorOpens++
	return &fakeCursor{p: p, rows: rows}, nil
}

func (c *fakeConn) Close(ctx context.Context) error {
	p := c.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.closed {
		panic("connection closed twice")
	}
	c.closed = true
	p.connCloses++
	return p.closeErr
}

type fakeCursor struct {
	p      *fakeProvider
	rows   [][]any
	pos    int
	closed bool
}

func (c *fakeCursor) Next(ctx context.Context) (Record, error) {
	p := c.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.closed {
		panic("next on closed cursor")
	}
	if p.nextErr != nil && c.pos >= p.failAfter {
		return Record{}, p.nextErr
	}
	if c.pos >= len(c.rows) {
		return Record{}, io.EOF
	}
	row := c.rows[c.pos]
	c.pos++
	p.nexts++
	return NewRecord(p.columns, row), nil
}

func (c *fakeCursor) Close() error {
	p := c.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.closed {
		panic("cursor closed twice")
	}
	c.closed = true
	p.cursorCloses++
	return nil
}

// ids returns the id column of recs.
func ids(recs []Record) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		v, _ := r.Get("id")
		out = append(out, v.(int64))
	}
	return out
}

// countingObserver tallies observer events.
type countingObserver struct {
	mu      sync.Mutex
	open    int
	rows    int
	batches int
	pages   int
	skipped map[string]int
	errors  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{skipped: map[string]int{}, errors: map[string]int{}}
}

func (o *countingObserver) CursorOpened() { o.mu.Lock(); o.open++; o.mu.Unlock() }
func (o *countingObserver) CursorClosed() { o.mu.Lock(); o.open--; o.mu.Unlock() }
func (o *countingObserver) RowRead()      { o.mu.Lock(); o.rows++; o.mu.Unlock() }
func (o *countingObserver) BatchEmitted() { o.mu.Lock(); o.batches++; o.mu.Unlock() }
func (o *countingObserver) PageFetched()  { o.mu.Lock(); o.pages++; o.mu.Unlock() }
func (o *countingObserver) RecordSkipped(reason string) {
	o.mu.Lock()
	o.skipped[reason]++
	o.mu.Unlock()
}
func (o *countingObserver) SourceError(kind string) {
	o.mu.Lock()
	o.errors[kind]++
	o.mu.Unlock()
}
