package core

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports a non-positive size, a nil collaborator or a
// malformed parameter. It is always returned before any connection is opened.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNullValue is the cause of a ConversionError for a NULL field.
var ErrNullValue = errors.New("null value")

// ErrMissingField is the cause of a ConversionError for an absent column.
var ErrMissingField = errors.New("missing field")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ConnectionError reports that a connection could not be established or was
// lost. It is fatal to the stream that observed it and is not retried.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "connection error: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DataSourceError reports a failure after the connection was established:
// executing the query, fetching a row or releasing the cursor.
type DataSourceError struct {
	Op  string // "execute", "fetch" or "close"
	Err error
}

func (e *DataSourceError) Error() string {
	return "data source error: " + e.Op + ": " + e.Err.Error()
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// ConversionError reports a field that could not be read as the expected
// scalar type. Pipelines skip the record; the error never ends a stream.
type ConversionError struct {
	Field string
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error: field %q value %v: %v", e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// connectionError wraps err unless it already is a ConnectionError.
func connectionError(err error) error {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConnectionError{Err: err}
}

// dataSourceError wraps err for op. Connection losses reported by a driver
// keep their ConnectionError type.
func dataSourceError(op string, err error) error {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return err
	}
	var de *DataSourceError
	if errors.As(err, &de) {
		return err
	}
	return &DataSourceError{Op: op, Err: err}
}

// errorKind names the taxonomy entry of err for metrics and logs.
func errorKind(err error) string {
	var (
		ce  *ConnectionError
		de  *DataSourceError
		cve *ConversionError
	)
	switch {
	case errors.As(err, &ce):
		return "connection"
	case errors.As(err, &de):
		return "data_source"
	case errors.As(err, &cve):
		return "conversion"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "other"
	}
}
