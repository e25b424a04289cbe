package core

import (
	"context"
	"iter"
)

// Stream is a single-pass, forward-only sequence pulled by the caller.
//
// Next advances to the next element and reports whether one is available.
// Once Next returns false it keeps returning false; Err then distinguishes
// exhaustion (nil) from failure. Close releases any held resources and may
// be called at any point, any number of times.
//
// Streams are not safe for concurrent use.
type Stream[T any] interface {
	Next(ctx context.Context) bool
	Value() T
	Err() error
	Close() error
}

// All returns a range-over-func view of s. The stream is closed when the
// loop ends, whether by exhaustion, break or error. A terminal error is
// yielded once, paired with the zero value.
func All[T any](ctx context.Context, s Stream[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for s.Next(ctx) {
			if !yield(s.Value(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains s into a slice and closes it. Use it only on streams known
// to be small, since it defeats the point of streaming.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	defer s.Close()
	var out []T
	for s.Next(ctx) {
		out = append(out, s.Value())
	}
	return out, s.Err()
}

// SliceStream is a Stream over an in-memory slice.
type SliceStream[T any] struct {
	items  []T
	pos    int
	cur    T
	closed bool
}

// FromSlice returns a stream yielding items in order.
func FromSlice[T any](items []T) *SliceStream[T] {
	return &SliceStream[T]{items: items}
}

func (s *SliceStream[T]) Next(ctx context.Context) bool {
	if s.closed || s.pos >= len(s.items) {
		return false
	}
	s.cur = s.items[s.pos]
	s.pos++
	return true
}

func (s *SliceStream[T]) Value() T {
	return s.cur
}

func (s *SliceStream[T]) Err() error {
	return nil
}

func (s *SliceStream[T]) Close() error {
	s.closed = true
	return nil
}
