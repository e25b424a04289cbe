package core

import (
	"context"
	"errors"
	"testing"
)

func TestFilterStream_Scenario(t *testing.T) {
	p := people()
	rows, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data"})
	batches, _ := NewBatchStream(rows, 2)
	f, err := NewFilterStream(batches, FieldGreaterThan("age", 25))
	if err != nil {
		t.Fatal(err)
	}

	got, err := Collect(context.Background(), Stream[Record](f))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1, 3}; !equalIDs(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
	if p.leaked() {
		t.Error("resources leaked")
	}
}

func TestRecordFilter_SkipsConversionErrors(t *testing.T) {
	p := newFake(
		[]any{1, 30},
		[]any{2, nil},
		[]any{3, "abc"},
		[]any{4, "41"},
		[]any{5, 10},
	)
	obs := newCountingObserver()
	rows, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data"})
	f, err := NewRecordFilter(rows, FieldGreaterThan("age", 25), WithObserver(obs))
	if err != nil {
		t.Fatal(err)
	}

	got, err := Collect(context.Background(), Stream[Record](f))
	if err != nil {
		t.Fatalf("Collect() error = %v, want nil", err)
	}
	if want := []int64{1, 4}; !equalIDs(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
	if f.Skipped() != 2 || obs.skipped["predicate"] != 2 {
		t.Errorf("skipped = %d (observer %d), want 2", f.Skipped(), obs.skipped["predicate"])
	}
	if f.Matched() != 2 {
		t.Errorf("Matched() = %d, want 2", f.Matched())
	}
}

func TestFilterStream_PredicatePanicIsSkipped(t *testing.T) {
	p := people()
	rows, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data"})
	pred := func(r Record) (bool, error) {
		v, _ := r.Get("id")
		if v.(int64) == 2 {
			panic("bad row")
		}
		return true, nil
	}
	f, _ := NewRecordFilter(rows, pred)

	got, err := Collect(context.Background(), Stream[Record](f))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1, 3}; !equalIDs(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
}

func TestFilterStream_PullsOneBatchAtATime(t *testing.T) {
	p := newFake()
	for i := 1; i <= 10; i++ {
		p.rows = append(p.rows, []any{i, 30})
	}
	rows, _ := NewRowStream(p, Query{SQL: "SELECT * FROM t"})
	batches, _ := NewBatchStream(rows, 4)
	f, _ := NewFilterStream(batches, FieldGreaterThan("age", 25))

	if !f.Next(context.Background()) {
		t.Fatal("Next() = false")
	}
	if p.nexts != 4 {
		t.Errorf("cursor advanced %d rows for the first match, want 4", p.nexts)
	}
	f.Close()
	if p.leaked() {
		t.Error("resources leaked after Close")
	}
}

func TestFilterStream_SourceErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	p := people()
	p.nextErr, p.failAfter = boom, 1
	rows, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data"})
	f, _ := NewRecordFilter(rows, FieldGreaterThan("age", 25))

	got, err := Collect(context.Background(), Stream[Record](f))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(got) != 1 {
		t.Errorf("records before failure = %d, want 1", len(got))
	}
	if p.leaked() {
		t.Error("resources leaked")
	}
}

func TestNewFilterStream_InvalidArguments(t *testing.T) {
	if _, err := NewFilterStream(nil, FieldGreaterThan("age", 1)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil source err = %v", err)
	}
	rows, _ := NewRowStream(people(), Query{SQL: "SELECT 1"})
	if _, err := NewRecordFilter(rows, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil predicate err = %v", err)
	}
}
