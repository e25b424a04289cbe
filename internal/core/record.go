package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Record is one row: an ordered mapping of column name to scalar value.
// Values are string, int64, float64, bool or nil.
//
// A Record is immutable. Accessors return copies.
type Record struct {
	columns []string
	values  []any
}

// NewRecord builds a record from parallel column and value slices.
// Values are normalized with [NormalizeValue]. Values without a column are
// dropped and columns without a value are nil.
//
// The columns slice is retained and must not be modified afterwards, which
// lets a cursor share one header slice across all of its rows.
func NewRecord(columns []string, values []any) Record {
	vals := make([]any, len(columns))
	for i := range vals {
		if i < len(values) {
			vals[i] = NormalizeValue(values[i])
		}
	}
	return Record{columns: columns, values: vals}
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.columns)
}

// Columns returns the column names in order.
func (r Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the values in column order.
func (r Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Get returns the value of the named column.
func (r Record) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Field returns the name and value at position i.
func (r Record) Field(i int) (string, any) {
	return r.columns[i], r.values[i]
}

// Equal reports whether both records have the same columns and values in
// the same order.
func (r Record) Equal(other Record) bool {
	if len(r.columns) != len(other.columns) {
		return false
	}
	for i := range r.columns {
		if r.columns[i] != other.columns[i] || r.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object, preserving column order.
// Non-finite floats are written as strings, see [Float].
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v := r.values[i]
		if f, ok := v.(float64); ok {
			v = Float(f)
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode column %q: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String implements fmt.Stringer.
func (r Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", r.values)
	}
	return string(b)
}

// Float is a float64 that always encodes to JSON. NaN and the infinities,
// which JSON numbers cannot hold, become the strings "NaN", "Infinity" and
// "-Infinity".
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(v)
}

// Batch is a contiguous group of records in source order.
type Batch []Record

// Page is the result of one bounded fetch. An empty page means there is no
// more data at Offset.
type Page struct {
	Records []Record
	Size    int
	Offset  int
}

// Len returns the number of records in the page.
func (p Page) Len() int {
	return len(p.Records)
}

// Empty reports whether the page carries no records.
func (p Page) Empty() bool {
	return len(p.Records) == 0
}
