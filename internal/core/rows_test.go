package core

import (
	"context"
	"errors"
	"testing"
)

func TestNewRowStream_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		p    Provider
		q    Query
	}{
		{name: "nil provider", p: nil, q: Query{SQL: "SELECT 1"}},
		{name: "empty query", p: people(), q: Query{SQL: "  ; "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRowStream(tt.p, tt.q)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRowStream_LazyOpen(t *testing.T) {
	p := people()
	s, err := NewRowStream(p, Query{SQL: "SELECT id, age FROM user_data;"})
	if err != nil {
		t.Fatal(err)
	}
	if opens, _, _, _ := p.counts(); opens != 0 {
		t.Fatalf("opens before Next = %d, want 0", opens)
	}

	if !s.Next(context.Background()) {
		t.Fatalf("Next() = false, err %v", s.Err())
	}
	if got := p.queries[0]; got != "SELECT id, age FROM user_data" {
		t.Errorf("query = %q, want trailing semicolon removed", got)
	}
	s.Close()
}

func TestRowStream_YieldsInOrderAndReleases(t *testing.T) {
	p := people()
	obs := newCountingObserver()
	s, err := NewRowStream(p, Query{SQL: "SELECT id, age FROM user_data"}, WithObserver(obs))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	var got []Record
	for s.Next(ctx) {
		got = append(got, s.Value())
		if !p.leaked() {
			t.Fatal("connection released while rows remain")
		}
	}
	if s.Err() != nil {
		t.Fatalf("Err() = %v", s.Err())
	}

	if want := []int64{1, 2, 3}; !equalIDs(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
	opens, connCloses, cursors, cursorCloses := p.counts()
	if opens != 1 || connCloses != 1 || cursors != 1 || cursorCloses != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want all 1", opens, connCloses, cursors, cursorCloses)
	}
	if obs.open != 0 || obs.rows != 3 {
		t.Errorf("observer open=%d rows=%d, want 0 and 3", obs.open, obs.rows)
	}

	// Exhausted streams stay exhausted and Close is a no-op.
	if s.Next(ctx) {
		t.Error("Next() after exhaustion = true")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() after exhaustion = %v", err)
	}
	if p.nexts != 3 {
		t.Errorf("cursor advanced %d times, want 3", p.nexts)
	}
}

func TestRowStream_EarlyAbandonment(t *testing.T) {
	p := people()
	s, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data"})

	if !s.Next(context.Background()) {
		t.Fatal("Next() = false")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if p.leaked() {
		t.Error("connection or cursor leaked after Close")
	}
	if p.nexts != 1 {
		t.Errorf("cursor advanced %d times, want 1", p.nexts)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestRowStream_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		setup    func(p *fakeProvider)
		wantRows int
		check    func(t *testing.T, err error)
	}{
		{
			name:  "open failure",
			setup: func(p *fakeProvider) { p.openErr = boom },
			check: func(t *testing.T, err error) {
				var ce *ConnectionError
				if !errors.As(err, &ce) {
					t.Errorf("err = %T, want *ConnectionError", err)
				}
			},
		},
		{
			name:  "execute failure",
			setup: func(p *fakeProvider) { p.queryErr = boom },
			check: func(t *testing.T, err error) {
				var de *DataSourceError
				if !errors.As(err, &de) || de.Op != "execute" {
					t.Errorf("err = %v, want execute DataSourceError", err)
				}
			},
		},
		{
			name:     "mid-stream failure",
			setup:    func(p *fakeProvider) { p.nextErr, p.failAfter = boom, 2 },
			wantRows: 2,
			check: func(t *testing.T, err error) {
				var de *DataSourceError
				if !errors.As(err, &de) || de.Op != "fetch" {
					t.Errorf("err = %v, want fetch DataSourceError", err)
				}
			},
		},
		{
			name: "lost connection mid-stream",
			setup: func(p *fakeProvider) {
				p.nextErr, p.failAfter = &ConnectionError{Err: boom}, 1
			},
			wantRows: 1,
			check: func(t *testing.T, err error) {
				var ce *ConnectionError
				if !errors.As(err, &ce) {
					t.Errorf("err = %v, want *ConnectionError", err)
				}
			},
		},
		{
			name:     "close failure after exhaustion",
			setup:    func(p *fakeProvider) { p.closeErr = boom },
			wantRows: 3,
			check: func(t *testing.T, err error) {
				var de *DataSourceError
				if !errors.As(err, &de) || de.Op != "close" {
					t.Errorf("err = %v, want close DataSourceError", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := people()
			tt.setup(p)
			s, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data"})

			n := 0
			for s.Next(context.Background()) {
				n++
			}
			if n != tt.wantRows {
				t.Errorf("rows = %d, want %d", n, tt.wantRows)
			}
			if !errors.Is(s.Err(), boom) {
				t.Errorf("Err() = %v, want cause boom", s.Err())
			}
			tt.check(t, s.Err())
			if p.leaked() {
				t.Error("resources leaked after error")
			}
			if s.Next(context.Background()) {
				t.Error("Next() after failure = true")
			}
		})
	}
}

func TestRowStream_CancelledContext(t *testing.T) {
	p := people()
	s, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data"})

	ctx, cancel := context.WithCancel(context.Background())
	if !s.Next(ctx) {
		t.Fatal("Next() = false")
	}
	cancel()
	if s.Next(ctx) {
		t.Fatal("Next() after cancel = true")
	}
	if !errors.Is(s.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", s.Err())
	}
	if p.leaked() {
		t.Error("resources leaked after cancellation")
	}
}

func TestRowStream_ArgsPassedThrough(t *testing.T) {
	p := people()
	s, _ := NewRowStream(p, Query{SQL: "SELECT * FROM user_data WHERE age > $1", Args: []any{25}})
	defer s.Close()

	s.Next(context.Background())
	if len(p.args) != 1 || len(p.args[0]) != 1 || p.args[0][0] != 25 {
		t.Errorf("args = %v, want [[25]]", p.args)
	}
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
