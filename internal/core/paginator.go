package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/rowstream/internal/logging"
)

// PageSource fetches one bounded page of records.
type PageSource interface {
	Fetch(ctx context.Context, size, offset int) (Page, error)
}

// Paginator runs a query with LIMIT/OFFSET bounds, one short-lived
// connection per Fetch. It keeps no state between calls.
type Paginator struct {
	provider Provider
	query    Query
	opts     options
}

// NewPaginator prepares paged access to q. The provider must have a
// parameter dialect.
//
// q must impose a total order on its rows, normally an ORDER BY over a
// unique key. Without one the store may return rows in a different order
// for each LIMIT/OFFSET window, and pages can then overlap or skip rows.
func NewPaginator(p Provider, q Query, opts ...Option) (*Paginator, error) {
	if p == nil {
		return nil, invalidArgument("nil provider")
	}
	if q.text() == "" {
		return nil, invalidArgument("empty query")
	}
	if p.Placeholder(1) == "" {
		return nil, invalidArgument("provider does not support bounded queries")
	}
	return &Paginator{
		provider: p,
		query:    q,
		opts:     buildOptions(opts),
	}, nil
}

// Fetch returns up to size records starting at offset. The connection is
// closed before Fetch returns.
//
// A connection failure yields an empty page and a *ConnectionError, unless
// the paginator was built WithEmptyOnConnectError, in which case the error
// is logged and dropped. This covers a connection that cannot be opened and
// one the driver reports lost while the query runs or rows are read.
func (p *Paginator) Fetch(ctx context.Context, size, offset int) (page Page, err error) {
	if size < 1 {
		return Page{}, invalidArgument("page size must be positive, got %d", size)
	}
	if offset < 0 {
		return Page{}, invalidArgument("offset must not be negative, got %d", offset)
	}

	page = Page{Size: size, Offset: offset}
	logger := logging.WithFields(ctx, "stream", "paginator", "offset", offset, "size", size)

	conn, err := p.provider.Open(ctx)
	if err != nil {
		err = connectionError(err)
		p.opts.observer.SourceError(errorKind(err))
		if p.opts.emptyOnConnectError {
			logger.Warn("connection failed, reporting empty page", "error", err)
			return page, nil
		}
		return page, err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = dataSourceError("close", cerr)
		}
		if err == nil {
			return
		}
		page.Records = nil
		p.opts.observer.SourceError(errorKind(err))
		var ce *ConnectionError
		if p.opts.emptyOnConnectError && errors.As(err, &ce) {
			logger.Warn("connection lost, reporting empty page", "error", err)
			err = nil
		}
	}()

	n := len(p.query.Args)
	// The bounds go on their own line so a trailing -- comment cannot swallow them.
	sql := fmt.Sprintf("%s\nLIMIT %s OFFSET %s",
		p.query.text(), p.provider.Placeholder(n+1), p.provider.Placeholder(n+2))
	args := append(p.query.args(2), size, offset)

	cursor, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return page, dataSourceError("execute", err)
	}
	p.opts.observer.CursorOpened()

	records := make([]Record, 0, size)
	for len(records) < size {
		rec, nerr := cursor.Next(ctx)
		if errors.Is(nerr, io.EOF) {
			break
		}
		if nerr != nil {
			err = dataSourceError("fetch", nerr)
			break
		}
		records = append(records, rec)
	}

	cerr := cursor.Close()
	p.opts.observer.CursorClosed()
	if err != nil {
		return page, err
	}
	if cerr != nil {
		return page, dataSourceError("close", cerr)
	}

	page.Records = records
	p.opts.observer.PageFetched()
	logger.Debug("page fetched", "records", len(records))
	return page, nil
}
