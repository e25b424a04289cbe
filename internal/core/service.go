package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/rowstream/internal/logging"
)

// ServiceConfig holds the defaults a Service applies to its traversals.
type ServiceConfig struct {
	BatchSize           int
	PageSize            int
	DefaultQuery        string
	MaxParallel         int
	MaxWait             time.Duration
	EmptyOnConnectError bool
}

// Service builds pipelines over one provider with shared defaults, metrics
// and a cap on parallel traversals.
//
// Stream-returning methods hand ownership to the caller, who must Close the
// stream. Methods that return a value run the whole traversal themselves.
type Service struct {
	provider Provider
	cfg      ServiceConfig
	opts     []Option
	limiter  *TraversalLimiter
}

// NewService creates a Service. Zero sizes in cfg fall back to 5.
func NewService(p Provider, cfg ServiceConfig, opts ...Option) (*Service, error) {
	if p == nil {
		return nil, invalidArgument("nil provider")
	}
	if cfg.BatchSize < 0 || cfg.PageSize < 0 {
		return nil, invalidArgument("sizes must not be negative")
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 5
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 5
	}

	return &Service{
		provider: p,
		cfg:      cfg,
		opts:     opts,
		limiter:  NewTraversalLimiter(cfg.MaxParallel, cfg.MaxWait),
	}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// Limiter exposes the traversal limiter for status reporting.
func (s *Service) Limiter() *TraversalLimiter {
	return s.limiter
}

// resolve fills in the default query when q has none.
func (s *Service) resolve(q Query) Query {
	if q.text() == "" {
		q.SQL = s.cfg.DefaultQuery
	}
	return q
}

// StreamRows returns a lazy row stream over q.
func (s *Service) StreamRows(q Query) (*RowStream, error) {
	return NewRowStream(s.provider, s.resolve(q), s.opts...)
}

// StreamBatches returns q's rows grouped in batches of n. An n of zero
// uses the configured batch size.
func (s *Service) StreamBatches(q Query, n int) (*BatchStream, error) {
	if n == 0 {
		n = s.cfg.BatchSize
	}
	if n < 0 {
		return nil, invalidArgument("batch size must be positive, got %d", n)
	}

	rows, err := s.StreamRows(q)
	if err != nil {
		return nil, err
	}
	return NewBatchStream(rows, n, s.opts...)
}

// FilterRows returns the rows of q matching pred, read n at a time.
func (s *Service) FilterRows(q Query, n int, pred Predicate) (*FilterStream, error) {
	if pred == nil {
		return nil, invalidArgument("nil predicate")
	}
	batches, err := s.StreamBatches(q, n)
	if err != nil {
		return nil, err
	}
	return NewFilterStream(batches, pred, s.opts...)
}

// Pages returns q paged by size. A size of zero uses the configured page
// size.
func (s *Service) Pages(q Query, size int) (*PageStream, error) {
	if size == 0 {
		size = s.cfg.PageSize
	}
	opts := append([]Option{WithEmptyOnConnectError(s.cfg.EmptyOnConnectError)}, s.opts...)
	pager, err := NewPaginator(s.provider, s.resolve(q), opts...)
	if err != nil {
		return nil, err
	}
	return NewPageStream(pager, size)
}

// AverageField returns the mean of field over the rows of q, skipping
// values that are not numeric.
func (s *Service) AverageField(ctx context.Context, q Query, field string) (float64, error) {
	values, err := s.fieldValues(q, field)
	if err != nil {
		return 0, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		values.Close()
		return 0, err
	}
	defer s.limiter.Release()

	ctx, _ = s.traversal(ctx, "average", field)
	return Average(ctx, values)
}

// SummarizeField returns count, sum, mean, min and max of field in one pass.
func (s *Service) SummarizeField(ctx context.Context, q Query, field string) (Summary, error) {
	values, err := s.fieldValues(q, field)
	if err != nil {
		return Summary{}, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		values.Close()
		return Summary{}, err
	}
	defer s.limiter.Release()

	ctx, _ = s.traversal(ctx, "summary", field)
	return Summarize(ctx, values)
}

// AverageFields averages several fields of q, one independent traversal
// per field, running up to the limiter's capacity in parallel. The first
// failure cancels the remaining traversals.
func (s *Service) AverageFields(ctx context.Context, q Query, fields []string) (map[string]float64, error) {
	if len(fields) == 0 {
		return nil, invalidArgument("no fields")
	}

	var (
		mu      sync.Mutex
		results = make(map[string]float64, len(fields))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, field := range fields {
		g.Go(func() error {
			mean, err := s.AverageField(gctx, q, field)
			if err != nil {
				return fmt.Errorf("average %s: %w", field, err)
			}
			mu.Lock()
			results[field] = mean
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) fieldValues(q Query, field string) (*ValueStream, error) {
	if field == "" {
		return nil, invalidArgument("empty field name")
	}
	rows, err := s.StreamRows(q)
	if err != nil {
		return nil, err
	}
	return FieldValues(rows, field, s.opts...)
}

// traversal tags ctx with a traversal ID unless it already has one.
func (s *Service) traversal(ctx context.Context, op, field string) (context.Context, string) {
	id := logging.TraversalID(ctx)
	if id == "" {
		ctx, id = logging.NewTraversal(ctx)
	}
	logging.WithFields(ctx, "op", op, "field", field).Debug("traversal started")
	return ctx, id
}
