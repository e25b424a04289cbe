package core

import (
	"context"
	"math"

	"github.com/JonMunkholm/rowstream/internal/logging"
)

// Accumulator holds a running sum and count.
type Accumulator struct {
	sum   float64
	count int64
}

// Add folds v into the running state.
func (a *Accumulator) Add(v float64) {
	a.sum += v
	a.count++
}

// Count returns the number of values added.
func (a *Accumulator) Count() int64 {
	return a.count
}

// Mean returns sum/count, or 0 when nothing was added.
func (a *Accumulator) Mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Average consumes src to exhaustion and returns the mean of its values,
// or 0 for an empty stream. src is closed before Average returns.
func Average(ctx context.Context, src Stream[float64]) (float64, error) {
	defer src.Close()

	var acc Accumulator
	for src.Next(ctx) {
		acc.Add(src.Value())
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	return acc.Mean(), nil
}

// Summary describes a numeric field. Min and Max are zero when Count is zero.
type Summary struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summarize consumes src to exhaustion and returns its statistics in one
// pass. src is closed before Summarize returns.
func Summarize(ctx context.Context, src Stream[float64]) (Summary, error) {
	defer src.Close()

	var (
		acc    Accumulator
		lo, hi = math.Inf(1), math.Inf(-1)
	)
	for src.Next(ctx) {
		v := src.Value()
		acc.Add(v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if err := src.Err(); err != nil {
		return Summary{}, err
	}
	if acc.count == 0 {
		return Summary{}, nil
	}
	return Summary{
		Count: acc.count,
		Sum:   acc.sum,
		Mean:  acc.Mean(),
		Min:   lo,
		Max:   hi,
	}, nil
}

// ValueStream yields one numeric field from each record of a row stream.
// Records whose field is missing, NULL or not numeric are skipped.
type ValueStream struct {
	src   Stream[Record]
	field string
	opts  options

	cur     float64
	skipped int64
}

// FieldValues extracts field from every record of src.
func FieldValues(src Stream[Record], field string, opts ...Option) (*ValueStream, error) {
	if src == nil {
		return nil, invalidArgument("nil source stream")
	}
	if field == "" {
		return nil, invalidArgument("empty field name")
	}
	return &ValueStream{
		src:   src,
		field: field,
		opts:  buildOptions(opts),
	}, nil
}

// Next advances to the next convertible value.
func (v *ValueStream) Next(ctx context.Context) bool {
	for v.src.Next(ctx) {
		rec := v.src.Value()
		f, err := fieldFloat(rec, v.field)
		if err != nil {
			v.skipped++
			v.opts.observer.RecordSkipped("conversion")
			logging.WithFields(ctx, "stream", "aggregate").Warn("value skipped",
				"field", v.field,
				"error", err,
			)
			continue
		}
		v.cur = f
		return true
	}
	return false
}

// Value returns the current value.
func (v *ValueStream) Value() float64 {
	return v.cur
}

// Err returns the source's terminal error.
func (v *ValueStream) Err() error {
	return v.src.Err()
}

// Skipped returns the number of records dropped for conversion failures.
func (v *ValueStream) Skipped() int64 {
	return v.skipped
}

// Close closes the source.
func (v *ValueStream) Close() error {
	return v.src.Close()
}
