package core

import "context"

// BatchStream regroups a record stream into batches of a fixed size.
//
// The last batch may be shorter. No empty batch is ever yielded, so a source
// that ends exactly on a batch boundary produces no trailer. If the source
// fails mid-batch, the partial batch is discarded and Err reports the
// source's error unchanged.
type BatchStream struct {
	src  Stream[Record]
	size int
	opts options

	cur     Batch
	done    bool
	batches int64
}

// NewBatchStream groups src into batches of size records. It fails with
// ErrInvalidArgument for a non-positive size, before src is touched.
func NewBatchStream(src Stream[Record], size int, opts ...Option) (*BatchStream, error) {
	if src == nil {
		return nil, invalidArgument("nil source stream")
	}
	if size <= 0 {
		return nil, invalidArgument("batch size must be positive, got %d", size)
	}
	return &BatchStream{
		src:  src,
		size: size,
		opts: buildOptions(opts),
	}, nil
}

// Next pulls up to size records from the source.
func (b *BatchStream) Next(ctx context.Context) bool {
	if b.done {
		return false
	}

	batch := make(Batch, 0, b.size)
	for len(batch) < b.size && b.src.Next(ctx) {
		batch = append(batch, b.src.Value())
	}

	if len(batch) == 0 || b.src.Err() != nil {
		b.done = true
		b.cur = nil
		return false
	}

	b.cur = batch
	b.batches++
	b.opts.observer.BatchEmitted()
	return true
}

// Value returns the current batch.
func (b *BatchStream) Value() Batch {
	return b.cur
}

// Err returns the source's terminal error.
func (b *BatchStream) Err() error {
	return b.src.Err()
}

// Batches returns the number of batches yielded so far.
func (b *BatchStream) Batches() int64 {
	return b.batches
}

// Close closes the source.
func (b *BatchStream) Close() error {
	b.done = true
	return b.src.Close()
}
