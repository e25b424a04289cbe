package core

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkToFloat covers the scalar shapes drivers hand back. It runs once
// per record in every filter and aggregation.
func BenchmarkToFloat(b *testing.B) {
	testCases := []any{
		int64(42),
		30.5,
		"67",
		" 1234.5678 ",
		"99999",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToFloat(tc)
		}
	}
}

// BenchmarkToFloat_Text benchmarks the common CSV case: integer text.
func BenchmarkToFloat_Text(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ToFloat("67")
	}
}

func BenchmarkNormalizeValue(b *testing.B) {
	testCases := []any{
		[]byte("alice"),
		int32(7),
		float32(1.5),
		decimal.RequireFromString("12.50"),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		nil,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			NormalizeValue(tc)
		}
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// generateRows returns n (id, age) rows.
func generateRows(n int) *fakeProvider {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i, 18 + i%60}
	}
	return newFake(rows...)
}

func BenchmarkRowStream(b *testing.B) {
	p := generateRows(1000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, _ := NewRowStream(p, Query{SQL: "SELECT id, age FROM people"})
		for s.Next(ctx) {
		}
		s.Close()
	}
}

func BenchmarkBatchFilter(b *testing.B) {
	p := generateRows(1000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rows, _ := NewRowStream(p, Query{SQL: "SELECT id, age FROM people"})
		batches, _ := NewBatchStream(rows, 50)
		matches, _ := NewFilterStream(batches, FieldGreaterThan("age", 25))
		for matches.Next(ctx) {
		}
		matches.Close()
	}
}

func BenchmarkAverage(b *testing.B) {
	p := generateRows(1000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rows, _ := NewRowStream(p, Query{SQL: "SELECT id, age FROM people"})
		values, _ := FieldValues(rows, "age")
		if _, err := Average(ctx, values); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPageStream(b *testing.B) {
	p := generateRows(1000)
	ctx := context.Background()
	pager, _ := NewPaginator(p, Query{SQL: "SELECT id, age FROM people"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pages, _ := NewPageStream(pager, 100)
		for pages.Next(ctx) {
		}
		pages.Close()
	}
}

// ============================================================================
// Parallel Benchmarks
// ============================================================================

func BenchmarkToFloatParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ToFloat(" 1234.5678 ")
		}
	})
}

// BenchmarkRowStreamParallel runs independent streams over one provider.
func BenchmarkRowStreamParallel(b *testing.B) {
	p := generateRows(1000)
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			s, _ := NewRowStream(p, Query{SQL: "SELECT id, age FROM people"})
			for s.Next(ctx) {
			}
			s.Close()
		}
	})
}

// ============================================================================
// Allocation Benchmarks
// ============================================================================

func BenchmarkRecordAllocs(b *testing.B) {
	columns := []string{"user_id", "name", "email", "age"}
	values := []any{"00234e50-34eb-4ce2-94ec-26e3fa749796", []byte("Dan"), "dan@example.com", int64(67)}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec := NewRecord(columns, values)
		rec.Get("age")
	}
}
