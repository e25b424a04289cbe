package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownQuery is returned by Lookup for a name not in the catalog.
var ErrUnknownQuery = errors.New("unknown query")

// NamedQuery is one catalog entry.
type NamedQuery struct {
	SQL         string `yaml:"sql"`
	Args        []any  `yaml:"args,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Catalog maps query names to queries. A YAML catalog looks like:
//
//	queries:
//	  adults:
//	    description: users over a given age
//	    sql: SELECT user_id, name, age FROM user_data WHERE age > $1
//	    args: [25]
type Catalog map[string]NamedQuery

type catalogFile struct {
	Queries Catalog `yaml:"queries"`
}

// LoadQueries reads a catalog file. An empty path yields an empty catalog.
func LoadQueries(path string) (Catalog, error) {
	if path == "" {
		return Catalog{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query catalog: %w", err)
	}
	cat, err := ParseQueries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// ParseQueries decodes a YAML catalog. Unknown keys and entries without SQL
// are errors.
func ParseQueries(data []byte) (Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse query catalog: %w", err)
	}

	cat := Catalog{}
	for name, q := range file.Queries {
		if strings.TrimSpace(q.SQL) == "" {
			return nil, fmt.Errorf("query %q has no sql", name)
		}
		cat[name] = q
	}
	return cat, nil
}

// Lookup returns the named query.
func (c Catalog) Lookup(name string) (NamedQuery, error) {
	q, ok := c[name]
	if !ok {
		return NamedQuery{}, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	return q, nil
}

// Names returns the query names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
