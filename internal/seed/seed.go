// Package seed loads user records into the user_data table.
//
// Records arrive as batches, usually read from a CSV export. Each record is
// validated on its own; invalid records are skipped and counted, and every
// valid batch is written in one transaction that ignores rows whose
// user_id is already present. Running the same seed twice is therefore
// harmless.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/rowstream/internal/core"
	"github.com/JonMunkholm/rowstream/internal/logging"
)

// Table is the seeded table.
const Table = "user_data"

// DDL creates Table. It is valid in both PostgreSQL and SQLite.
const DDL = `CREATE TABLE IF NOT EXISTS user_data (
	user_id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	age DECIMAL(5,0) NOT NULL
)`

// Columns lists the seeded columns in insert order.
var Columns = []string{"user_id", "name", "email", "age"}

// maxAge is the largest value DECIMAL(5,0) holds.
const maxAge = 99999

var (
	ErrInvalidID  = errors.New("invalid user_id")
	ErrEmptyField = errors.New("empty field")
	ErrInvalidAge = errors.New("age must be a whole number between 0 and 99999")
)

// Sink is a store that can create the table and insert while ignoring
// duplicate keys.
type Sink interface {
	CreateTable(ctx context.Context, ddl string) error
	InsertIgnore(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// User is one validated row.
type User struct {
	ID    string
	Name  string
	Email string
	Age   int64
}

func (u User) row() []any {
	return []any{u.ID, u.Name, u.Email, u.Age}
}

// Result counts what a seed run did.
type Result struct {
	Read     int64 `json:"read"`
	Inserted int64 `json:"inserted"`
	Ignored  int64 `json:"ignored"`
	Skipped  int64 `json:"skipped"`
}

// Option configures Run.
type Option func(*runner)

// WithObserver reports skipped records to obs.
func WithObserver(obs core.Observer) Option {
	return func(r *runner) {
		if obs != nil {
			r.obs = obs
		}
	}
}

type runner struct {
	obs core.Observer
}

// ParseUser validates rec. Failures are ConversionErrors naming the field.
func ParseUser(rec core.Record) (User, error) {
	var u User

	id, err := text(rec, "user_id")
	if err != nil {
		return User{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return User{}, &core.ConversionError{Field: "user_id", Value: id, Err: ErrInvalidID}
	}
	u.ID = parsed.String()

	if u.Name, err = text(rec, "name"); err != nil {
		return User{}, err
	}
	if u.Email, err = text(rec, "email"); err != nil {
		return User{}, err
	}

	raw, ok := rec.Get("age")
	if !ok {
		return User{}, &core.ConversionError{Field: "age", Err: core.ErrMissingField}
	}
	if raw == nil {
		return User{}, &core.ConversionError{Field: "age", Err: core.ErrNullValue}
	}
	age, err := decimal.NewFromString(strings.TrimSpace(core.ToString(raw)))
	if err != nil || !age.IsInteger() || age.IsNegative() || age.GreaterThan(decimal.NewFromInt(maxAge)) {
		return User{}, &core.ConversionError{Field: "age", Value: raw, Err: ErrInvalidAge}
	}
	u.Age = age.IntPart()

	return u, nil
}

func text(rec core.Record, field string) (string, error) {
	v, ok := rec.Get(field)
	if !ok {
		return "", &core.ConversionError{Field: field, Err: core.ErrMissingField}
	}
	if v == nil {
		return "", &core.ConversionError{Field: field, Err: core.ErrNullValue}
	}
	s := strings.TrimSpace(core.ToString(v))
	if s == "" {
		return "", &core.ConversionError{Field: field, Value: v, Err: ErrEmptyField}
	}
	return s, nil
}

// Run creates the table if needed and inserts every valid record from
// batches. It closes batches. On error the counts reflect the batches
// committed before the failure.
func Run(ctx context.Context, batches core.Stream[core.Batch], sink Sink, opts ...Option) (Result, error) {
	defer batches.Close()

	var r runner
	for _, opt := range opts {
		opt(&r)
	}

	var res Result
	logger := logging.WithFields(ctx, "op", "seed", "table", Table)

	if err := sink.CreateTable(ctx, DDL); err != nil {
		return res, err
	}

	for batches.Next(ctx) {
		batch := batches.Value()
		rows := make([][]any, 0, len(batch))
		for _, rec := range batch {
			res.Read++
			u, err := ParseUser(rec)
			if err != nil {
				res.Skipped++
				if r.obs != nil {
					r.obs.RecordSkipped("validation")
				}
				logger.Warn("skipping invalid record", "error", err, "record", rec.String())
				continue
			}
			rows = append(rows, u.row())
		}

		n, err := sink.InsertIgnore(ctx, Table, Columns, rows)
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", Table, err)
		}
		res.Inserted += n
		res.Ignored += int64(len(rows)) - n
	}
	if err := batches.Err(); err != nil {
		return res, err
	}

	logger.Info("seed complete",
		"read", res.Read,
		"inserted", res.Inserted,
		"ignored", res.Ignored,
		"skipped", res.Skipped,
	)
	return res, nil
}
