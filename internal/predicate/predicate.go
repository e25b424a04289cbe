// Package predicate compiles filter expressions into core predicates.
//
// The language is a small WHERE clause:
//
//	age > 25 AND (name != 'bob' OR email CONTAINS '@example.com')
//	NOT active = TRUE
//	email = NULL
//
// Comparisons against a number convert the field with core.ToFloat.
// Comparisons against a string compare the field's text form. TRUE, FALSE
// and NULL support only = and !=. A record whose field is missing, NULL
// (except in a NULL comparison) or not convertible fails with a
// *core.ConversionError, which makes the filter skip it. OR and AND settle
// from their other operands first: a true branch satisfies an OR and a false
// one fails an AND, whatever error another branch raised.
package predicate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/rowstream/internal/core"
)

// node evaluates one expression against a record.
type node func(core.Record) (bool, error)

// Parse compiles expr into a predicate. Syntax errors and unsupported
// operator/literal pairs are reported wrapped in core.ErrInvalidArgument.
func Parse(expr string) (core.Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty filter expression", core.ErrInvalidArgument)
	}

	ast, err := filterParser.ParseString("", expr)
	if err != nil {
		return nil, fmt.Errorf("%w: parse filter %q: %v", core.ErrInvalidArgument, expr, err)
	}
	n, err := compileExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %q: %v", core.ErrInvalidArgument, expr, err)
	}
	return core.Predicate(n), nil
}

// MustParse is like Parse but panics on error. It is meant for fixed
// expressions in code and tests.
func MustParse(expr string) core.Predicate {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func compileExpr(e *astExpr) (node, error) {
	terms := make([]node, 0, len(e.Or))
	for _, a := range e.Or {
		n, err := compileAnd(a)
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return func(r core.Record) (bool, error) {
		var first error
		for _, t := range terms {
			ok, err := t(r)
			if err != nil {
				if first == nil {
					first = err
				}
				continue
			}
			if ok {
				return true, nil
			}
		}
		return false, first
	}, nil
}

func compileAnd(a *astAnd) (node, error) {
	terms := make([]node, 0, len(a.And))
	for _, t := range a.And {
		n, err := compileTerm(t)
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return func(r core.Record) (bool, error) {
		var first error
		for _, t := range terms {
			ok, err := t(r)
			if err != nil {
				if first == nil {
					first = err
				}
				continue
			}
			if !ok {
				return false, nil
			}
		}
		return first == nil, first
	}, nil
}

func compileTerm(t *astTerm) (node, error) {
	switch {
	case t.Not != nil:
		inner, err := compileTerm(t.Not)
		if err != nil {
			return nil, err
		}
		return func(r core.Record) (bool, error) {
			ok, err := inner(r)
			return !ok, err
		}, nil
	case t.Grouped != nil:
		return compileExpr(t.Grouped)
	default:
		return compileComparison(t.Compare)
	}
}

func compileComparison(c *astComparison) (node, error) {
	op := strings.ToUpper(c.Op)
	field := c.Field
	lit := c.Value

	switch {
	case lit.Null:
		if op != "=" && op != "!=" {
			return nil, fmt.Errorf("NULL supports only = and !=, got %s", op)
		}
		return func(r core.Record) (bool, error) {
			v, ok := r.Get(field)
			if !ok {
				return false, &core.ConversionError{Field: field, Err: core.ErrMissingField}
			}
			return (v == nil) == (op == "="), nil
		}, nil

	case lit.Bool != nil:
		if op != "=" && op != "!=" {
			return nil, fmt.Errorf("booleans support only = and !=, got %s", op)
		}
		want := bool(*lit.Bool)
		return func(r core.Record) (bool, error) {
			v, err := fieldValue(r, field)
			if err != nil {
				return false, err
			}
			got, err := toBool(v)
			if err != nil {
				return false, &core.ConversionError{Field: field, Value: v, Err: err}
			}
			return (got == want) == (op == "="), nil
		}, nil

	case lit.Number != nil:
		if op == "CONTAINS" {
			return nil, fmt.Errorf("CONTAINS needs a string, got %v", *lit.Number)
		}
		want := *lit.Number
		return func(r core.Record) (bool, error) {
			v, err := fieldValue(r, field)
			if err != nil {
				return false, err
			}
			got, err := core.ToFloat(v)
			if err != nil {
				return false, &core.ConversionError{Field: field, Value: v, Err: err}
			}
			return compareOrdered(op, got, want), nil
		}, nil

	default:
		want := *lit.String
		return func(r core.Record) (bool, error) {
			v, err := fieldValue(r, field)
			if err != nil {
				return false, err
			}
			got := core.ToString(v)
			if op == "CONTAINS" {
				return strings.Contains(got, want), nil
			}
			return compareOrdered(op, got, want), nil
		}, nil
	}
}

// fieldValue returns the non-NULL value of field.
func fieldValue(r core.Record, field string) (any, error) {
	v, ok := r.Get(field)
	if !ok {
		return nil, &core.ConversionError{Field: field, Err: core.ErrMissingField}
	}
	if v == nil {
		return nil, &core.ConversionError{Field: field, Err: core.ErrNullValue}
	}
	return v, nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	default:
		return false, fmt.Errorf("not a boolean: %T", v)
	}
}

func compareOrdered[T float64 | string](op string, a, b T) bool {
	switch op {
	case "=":
		return a == b
	case "!=":
		return a != b
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	}
	return false
}
