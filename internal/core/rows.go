package core

import (
	"context"
	"errors"
	"io"

	"github.com/JonMunkholm/rowstream/internal/logging"
)

type streamState int

const (
	stateIdle streamState = iota // constructed, nothing acquired
	stateOpen                    // connection and cursor held
	stateDone                    // exhausted, failed or closed; nothing held
)

// RowStream yields the rows of one query, one cursor step per Next.
//
// The connection is opened and the query executed on the first call to
// Next. The cursor and connection are released exactly once: before Next
// reports exhaustion, before a fatal error becomes visible through Err, or
// on Close.
type RowStream struct {
	provider Provider
	query    Query
	opts     options

	state  streamState
	conn   Conn
	cursor Cursor
	cur    Record
	err    error
	rows   int64
}

// NewRowStream prepares a stream over q. No connection is opened until the
// first call to Next.
func NewRowStream(p Provider, q Query, opts ...Option) (*RowStream, error) {
	if p == nil {
		return nil, invalidArgument("nil provider")
	}
	if q.text() == "" {
		return nil, invalidArgument("empty query")
	}
	return &RowStream{
		provider: p,
		query:    q,
		opts:     buildOptions(opts),
	}, nil
}

// Next advances the cursor by one row.
func (s *RowStream) Next(ctx context.Context) bool {
	if s.state == stateDone {
		return false
	}

	if err := ctx.Err(); err != nil {
		s.fail(ctx, dataSourceError("fetch", err))
		return false
	}

	if s.state == stateIdle {
		if err := s.open(ctx); err != nil {
			s.fail(ctx, err)
			return false
		}
	}

	rec, err := s.cursor.Next(ctx)
	if errors.Is(err, io.EOF) {
		s.finish(ctx)
		return false
	}
	if err != nil {
		s.fail(ctx, dataSourceError("fetch", err))
		return false
	}

	s.cur = rec
	s.rows++
	s.opts.observer.RowRead()
	return true
}

// Value returns the current row.
func (s *RowStream) Value() Record {
	return s.cur
}

// Err returns the error that terminated the stream, if any.
func (s *RowStream) Err() error {
	return s.err
}

// Rows returns the number of rows yielded so far.
func (s *RowStream) Rows() int64 {
	return s.rows
}

// Close releases the cursor and connection if they are still held.
// Closing an exhausted, failed or already closed stream is a no-op.
func (s *RowStream) Close() error {
	if s.state == stateDone {
		return nil
	}
	s.state = stateDone
	if err := s.release(context.Background()); err != nil {
		return dataSourceError("close", err)
	}
	return nil
}

func (s *RowStream) open(ctx context.Context) error {
	conn, err := s.provider.Open(ctx)
	if err != nil {
		return connectionError(err)
	}
	s.conn = conn
	s.state = stateOpen

	cursor, err := conn.Query(ctx, s.query.text(), s.query.Args...)
	if err != nil {
		return dataSourceError("execute", err)
	}
	s.cursor = cursor
	s.opts.observer.CursorOpened()

	logging.WithFields(ctx, "stream", "rows").Debug("cursor opened")
	return nil
}

// finish handles normal exhaustion.
func (s *RowStream) finish(ctx context.Context) {
	s.state = stateDone
	if err := s.release(context.WithoutCancel(ctx)); err != nil {
		s.err = dataSourceError("close", err)
		s.opts.observer.SourceError(errorKind(s.err))
	}
	logging.WithFields(ctx, "stream", "rows").Debug("cursor exhausted", "rows", s.rows)
}

// fail records a fatal error after releasing everything acquired.
func (s *RowStream) fail(ctx context.Context, err error) {
	s.state = stateDone
	s.err = err
	s.opts.observer.SourceError(errorKind(err))

	logger := logging.WithFields(ctx, "stream", "rows")
	if relErr := s.release(context.WithoutCancel(ctx)); relErr != nil {
		logger.Warn("release after failure", "error", relErr)
	}
	logger.Debug("stream failed", "error", err, "rows", s.rows)
}

// release closes the cursor then the connection. Each is closed at most
// once because the fields are cleared as soon as they are released.
func (s *RowStream) release(ctx context.Context) error {
	var errs []error
	if s.cursor != nil {
		if err := s.cursor.Close(); err != nil {
			errs = append(errs, err)
		}
		s.cursor = nil
		s.opts.observer.CursorClosed()
	}
	if s.conn != nil {
		if err := s.conn.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		s.conn = nil
	}
	return errors.Join(errs...)
}
