package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/rowstream/internal/logging"
)

// Predicate decides whether a record passes a filter. An error means the
// record could not be evaluated; the filter skips it.
type Predicate func(Record) (bool, error)

// FieldGreaterThan matches records whose numeric field exceeds threshold.
// NULL, missing and non-numeric values yield a ConversionError.
func FieldGreaterThan(field string, threshold float64) Predicate {
	return func(rec Record) (bool, error) {
		f, err := fieldFloat(rec, field)
		if err != nil {
			return false, err
		}
		return f > threshold, nil
	}
}

// FilterStream yields, one at a time and in source order, the records of a
// batch stream that satisfy a predicate. It holds at most one batch.
//
// Predicate errors are not fatal: the record is skipped, a warning is
// logged and the stream carries on. Only source errors end the stream.
type FilterStream struct {
	src  Stream[Batch]
	pred Predicate
	opts options

	pending Batch
	pos     int
	cur     Record
	done    bool
	matched int64
	skipped int64
}

// NewFilterStream filters the records of src with pred.
func NewFilterStream(src Stream[Batch], pred Predicate, opts ...Option) (*FilterStream, error) {
	if src == nil {
		return nil, invalidArgument("nil source stream")
	}
	if pred == nil {
		return nil, invalidArgument("nil predicate")
	}
	return &FilterStream{
		src:  src,
		pred: pred,
		opts: buildOptions(opts),
	}, nil
}

// NewRecordFilter filters a record stream directly, without batching.
func NewRecordFilter(src Stream[Record], pred Predicate, opts ...Option) (*FilterStream, error) {
	if src == nil {
		return nil, invalidArgument("nil source stream")
	}
	return NewFilterStream(&singletonBatches{src: src}, pred, opts...)
}

// Next advances to the next matching record.
func (f *FilterStream) Next(ctx context.Context) bool {
	if f.done {
		return false
	}

	for {
		for f.pos < len(f.pending) {
			rec := f.pending[f.pos]
			f.pos++

			ok, err := f.eval(rec)
			if err != nil {
				f.skip(ctx, rec, err)
				continue
			}
			if ok {
				f.cur = rec
				f.matched++
				return true
			}
		}

		f.pending, f.pos = nil, 0
		if !f.src.Next(ctx) {
			f.done = true
			return false
		}
		f.pending = f.src.Value()
	}
}

// eval runs the predicate, turning a panic into a skip.
func (f *FilterStream) eval(rec Record) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predicate panic: %v", r)
		}
	}()
	return f.pred(rec)
}

func (f *FilterStream) skip(ctx context.Context, rec Record, err error) {
	f.skipped++
	f.opts.observer.RecordSkipped("predicate")
	logging.WithFields(ctx, "stream", "filter").Warn("record skipped",
		"error", err,
		"record", rec.String(),
	)
}

// Value returns the current record.
func (f *FilterStream) Value() Record {
	return f.cur
}

// Err returns the source's terminal error.
func (f *FilterStream) Err() error {
	return f.src.Err()
}

// Matched returns the number of records yielded so far.
func (f *FilterStream) Matched() int64 {
	return f.matched
}

// Skipped returns the number of records dropped because the predicate
// could not evaluate them.
func (f *FilterStream) Skipped() int64 {
	return f.skipped
}

// Close closes the source.
func (f *FilterStream) Close() error {
	f.done = true
	f.pending = nil
	return f.src.Close()
}

// singletonBatches presents a record stream as batches of one.
type singletonBatches struct {
	src Stream[Record]
	cur Batch
}

func (s *singletonBatches) Next(ctx context.Context) bool {
	if !s.src.Next(ctx) {
		s.cur = nil
		return false
	}
	s.cur = Batch{s.src.Value()}
	return true
}

func (s *singletonBatches) Value() Batch { return s.cur }
func (s *singletonBatches) Err() error   { return s.src.Err() }
func (s *singletonBatches) Close() error { return s.src.Close() }
