// Package transform turns raw GA4 report rows into typed rows ready for ClickHouse.
package transform

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidMetric is the sentinel wrapped by every CoercionError
	ErrInvalidMetric = errors.New("invalid metric value")
	// ErrMalformedNumber is returned for values that are not plain decimal numbers
	ErrMalformedNumber = errors.New("not a plain decimal number")

	// Integers and decimals only: no sign other than '-', no exponent, no hex.
	metricPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Kind identifies which parse path a metric value took
type Kind int

// Number kinds
const (
	KindNull Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "null"
	}
}

// Number is a coerced metric value
type Number struct {
	kind Kind
	i    int64
	f    float64
}

// Int returns an integer Number
func Int(v int64) Number { return Number{kind: KindInt, i: v} }

// Float returns a floating-point Number
func Float(v float64) Number { return Number{kind: KindFloat, f: v} }

// Null returns the NULL Number used in place of unparseable values
func Null() Number { return Number{} }

// Kind reports the kind of n
func (n Number) Kind() Kind { return n.kind }

// Value returns n as int64, float64 or nil
func (n Number) Value() interface{} {
	switch n.kind {
	case KindInt:
		return n.i
	case KindFloat:
		return n.f
	default:
		return nil
	}
}

func (n Number) String() string {
	switch n.kind {
	case KindInt:
		return strconv.FormatInt(n.i, 10)
	case KindFloat:
		return formatFloat(n.f)
	default:
		return "NULL"
	}
}

// CoercionError reports a metric string that could not be parsed. Kind is the
// path that was attempted: KindFloat when the value contained a decimal
// separator, KindInt otherwise.
type CoercionError struct {
	Value string
	Kind  Kind
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid %s: %v", ErrInvalidMetric, e.Value, e.Kind, e.Err)
}

// Unwrap allows errors.Is against ErrInvalidMetric and the strconv error
func (e *CoercionError) Unwrap() []error {
	return []error{ErrInvalidMetric, e.Err}
}

// CoerceMetric converts a GA4 metric string into a number. Commas are treated as
// decimal separators. Values containing a separator are parsed as float64,
// everything else as int64.
func CoerceMetric(value string) (Number, error) {
	s := value
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ",", ".")
	}

	kind := KindInt
	if strings.Contains(s, ".") {
		kind = KindFloat
	}

	if !metricPattern.MatchString(s) {
		return Null(), &CoercionError{Value: value, Kind: kind, Err: ErrMalformedNumber}
	}

	if kind == KindFloat {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Null(), &CoercionError{Value: value, Kind: KindFloat, Err: err}
		}

		return Float(f), nil
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Null(), &CoercionError{Value: value, Kind: KindInt, Err: err}
	}

	return Int(i), nil
}

// formatFloat renders f in plain decimal notation, always with a decimal point
// so the literal reads back as a float.
func formatFloat(f float64) string {
	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}

	return out
}

// CleanDimension removes every apostrophe from a dimension value
func CleanDimension(s string) string {
	return strings.ReplaceAll(s, "'", "")
}
