package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCatalog = `
queries:
  adults:
    description: users over an age
    sql: SELECT user_id, name, age FROM user_data WHERE age > $1
    args: [25]
  everyone:
    sql: SELECT * FROM user_data
`

func TestParseQueries(t *testing.T) {
	cat, err := ParseQueries([]byte(sampleCatalog))
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Join(cat.Names(), ","); got != "adults,everyone" {
		t.Errorf("Names() = %s, want adults,everyone", got)
	}
	q, err := cat.Lookup("adults")
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Args) != 1 || q.Args[0] != 25 {
		t.Errorf("Args = %v, want [25]", q.Args)
	}
	if _, err := cat.Lookup("nobody"); !errors.Is(err, ErrUnknownQuery) {
		t.Errorf("Lookup(nobody) error = %v, want ErrUnknownQuery", err)
	}
}

func TestParseQueries_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing sql", data: "queries:\n  broken:\n    args: [1]\n"},
		{name: "unknown key", data: "queries:\n  q:\n    sql: SELECT 1\n    limit: 3\n"},
		{name: "not yaml", data: "queries: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQueries([]byte(tt.data)); err == nil {
				t.Error("ParseQueries() error = nil")
			}
		})
	}
}

func TestLoadQueries(t *testing.T) {
	cat, err := LoadQueries("")
	if err != nil || len(cat) != 0 {
		t.Errorf("LoadQueries(\"\") = %v, %v; want empty", cat, err)
	}

	path := filepath.Join(t.TempDir(), "queries.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatal(err)
	}
	cat, err = LoadQueries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cat) != 2 {
		t.Errorf("len = %d, want 2", len(cat))
	}

	if _, err := LoadQueries(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadQueries(missing) error = nil")
	}
}
