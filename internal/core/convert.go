package core

// convert.go normalizes driver values into record scalars and converts
// scalars for numeric filtering and aggregation.
//
// Drivers hand back a wide range of Go types. Records only ever carry:
//   - nil for SQL NULL
//   - string (text, []byte, timestamps in RFC 3339)
//   - int64 for every integer width
//   - float64 for floating point and decimal.Decimal values
//   - bool

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is the cause of a ConversionError for a value that is not a
// number.
var ErrNotNumeric = errors.New("not a numeric value")

// NormalizeValue converts a driver value to a record scalar.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		return uintValue(uint64(x))
	case uint64:
		return uintValue(x)
	case float64:
		return x
	case float32:
		return float64(x)
	case bool:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return x.InexactFloat64()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func uintValue(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// ToFloat reads a scalar as a float64.
//
// Numeric text such as "30" or " 42.5 " is parsed exactly with
// decimal.NewFromString, which also accepts DECIMAL columns that drivers
// deliver as text. NULL, booleans and non-numeric text fail.
func ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, ErrNullValue
	case int64:
		return float64(x), nil
	case float64:
		if math.IsNaN(x) {
			return 0, ErrNotNumeric
		}
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, ErrNotNumeric
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, x)
		}
		return d.InexactFloat64(), nil
	case bool:
		return 0, fmt.Errorf("%w: boolean", ErrNotNumeric)
	default:
		return ToFloat(NormalizeValue(v))
	}
}

// ToString renders a scalar as text. NULL becomes the empty string.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ToString(NormalizeValue(v))
	}
}

// fieldFloat reads column field of rec as a float64, returning a
// ConversionError when the column is missing or not numeric.
func fieldFloat(rec Record, field string) (float64, error) {
	v, ok := rec.Get(field)
	if !ok {
		return 0, &ConversionError{Field: field, Err: ErrMissingField}
	}
	f, err := ToFloat(v)
	if err != nil {
		return 0, &ConversionError{Field: field, Value: v, Err: err}
	}
	return f, nil
}
