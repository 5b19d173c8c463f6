package dtype

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnparseableTime = errors.New("unable to parse datetime")
	ErrNotConvertible  = errors.New("value not convertible")
)

// ConversionError describes a value that could not be coerced to a target type.
type ConversionError struct {
	Value  any
	Target Type
	Err    error
}

func (e *ConversionError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnparseableTime):
		return fmt.Sprintf("Unknown datetime string format, unable to parse: %v", e.Value)
	case errors.Is(e.Err, strconv.ErrSyntax):
		return fmt.Sprintf("could not convert string to float: '%v'", e.Value)
	case errors.Is(e.Err, ErrNotConvertible):
		return fmt.Sprintf("%T is not convertible to %s", e.Value, e.Target)
	}
	return fmt.Sprintf("cannot convert %v to %s: %s", e.Value, e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IsNull reports whether v is a missing value: nil or a NaN float.
func IsNull(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(n)
	case float32:
		return math.IsNaN(float64(n))
	}
	return false
}

// Coerce converts v to the representation stored in a column of type t.
// Null input yields nil for every target. Unparseable input is an error.
func Coerce(v any, t Type) (any, error) {
	if IsNull(v) {
		return nil, nil
	}

	switch t {
	case Int:
		return toInt(v)
	case Float:
		f, err := toFloat(v)
		if err != nil {
			return nil, &ConversionError{Value: v, Target: t, Err: err}
		}
		if math.IsNaN(f) {
			return nil, nil
		}
		return f, nil
	case Bool:
		return toBool(v), nil
	case Datetime:
		ts, err := toTime(v)
		if err != nil {
			return nil, &ConversionError{Value: v, Target: t, Err: err}
		}
		return ts, nil
	default:
		return Render(v), nil
	}
}

// CoerceOrNull is Coerce with every conversion failure replaced by nil.
func CoerceOrNull(v any, t Type) any {
	out, err := Coerce(v, t)
	if err != nil {
		return nil
	}
	return out
}

// Normalize turns decoder artifacts into native cell values: json.Number becomes
// int64 when it is integral text, float64 otherwise.
func Normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return string(n)
}

func toInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, nil
		}
	}

	f, err := toFloat(v)
	if err != nil {
		return nil, &ConversionError{Value: v, Target: Int, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &ConversionError{Value: v, Target: Int, Err: fmt.Errorf("cannot convert float %v to integer", f)}
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, &ConversionError{Value: v, Target: Int, Err: fmt.Errorf("%v overflows int64", f)}
	}
	return int64(math.Trunc(f)), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return parseFloat(string(n))
	case string:
		return parseFloat(n)
	}
	return 0, ErrNotConvertible
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, nil
		}
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(b) {
		case "true", "1", "yes":
			return true
		}
		return false
	case time.Time:
		return true
	}

	if f, err := toFloat(v); err == nil {
		return f != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// ParseTime parses s against the accepted datetime layouts. Values without a zone
// are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnparseableTime
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		return ParseTime(t)
	case bool:
		return time.Time{}, ErrNotConvertible
	}

	// numbers are nanoseconds since the epoch
	if i, err := toInt(v); err == nil {
		return time.Unix(0, i.(int64)).UTC(), nil
	}
	return time.Time{}, ErrNotConvertible
}

// Render is the textual form of a value used for string, category and object columns.
func Render(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(t, 64)
	case float32:
		return formatFloat(float64(t), 32)
	case json.Number:
		return string(t)
	case time.Time:
		if t.Location() == time.UTC {
			return t.Format("2006-01-02 15:04:05.999999999")
		}
		return t.Format("2006-01-02 15:04:05.999999999-07:00")
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	format := byte('g')
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		format = 'f'
	}
	s := strconv.FormatFloat(f, format, -1, bits)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
