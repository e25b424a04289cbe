package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTraversalID(t *testing.T) {
	ctx := context.Background()
	if got := TraversalID(ctx); got != "" {
		t.Errorf("TraversalID(empty) = %q, want empty", got)
	}

	ctx, id := NewTraversal(ctx)
	if id == "" {
		t.Fatal("NewTraversal returned empty id")
	}
	if got := TraversalID(ctx); got != id {
		t.Errorf("TraversalID = %q, want %q", got, id)
	}

	_, other := NewTraversal(context.Background())
	if other == id {
		t.Error("NewTraversal returned the same id twice")
	}
}

func TestFromContext_AddsIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	ctx = WithTraversalID(ctx, "trav-7")

	WithFields(ctx, "stream", "rows").Info("hello")

	out := buf.String()
	for _, want := range []string{"request_id=req-42", "traversal_id=trav-7", "stream=rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
