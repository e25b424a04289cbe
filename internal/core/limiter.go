package core

// limiter.go bounds how many traversals may hold a connection at once.
//
// Independent streams may run in parallel, but each one owns a connection
// for its whole lifetime. The limiter caps that with a semaphore so that a
// wide fan-out cannot drain the pool. A caller that finds every slot taken
// waits up to maxWait and then fails with ErrTooManyTraversals.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyTraversals is returned when no traversal slot frees up within
// the limiter's wait time.
var ErrTooManyTraversals = errors.New("too many concurrent traversals")

const (
	// DefaultMaxParallel is the slot count used when none is configured.
	DefaultMaxParallel = 4

	// DefaultMaxWait is how long Acquire waits for a slot by default.
	DefaultMaxWait = 30 * time.Second
)

// TraversalLimiter is a counting semaphore over traversal slots.
type TraversalLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewTraversalLimiter allows at most maxParallel concurrent traversals.
// Non-positive arguments fall back to the defaults.
func NewTraversalLimiter(maxParallel int, maxWait time.Duration) *TraversalLimiter {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &TraversalLimiter{
		slots:   make(chan struct{}, maxParallel),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most the limiter's maxWait. Every
// successful Acquire must be paired with one Release.
func (l *TraversalLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyTraversals
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *TraversalLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *TraversalLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of slots in use.
func (l *TraversalLimiter) Active() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no slot is in use or ctx ends.
func (l *TraversalLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a point-in-time view of a TraversalLimiter.
type LimiterStatus struct {
	Active      int `json:"active"`
	Available   int `json:"available"`
	MaxParallel int `json:"max_parallel"`
}

// Status reports current slot usage.
func (l *TraversalLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:      l.Active(),
		Available:   cap(l.slots) - len(l.slots),
		MaxParallel: cap(l.slots),
	}
}
