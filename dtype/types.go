// Package dtype maps native column type descriptors onto the canonical type set and
// converts cell values between them.
package dtype

import (
	"errors"
	"fmt"
	"strings"
)

// Type is the canonical storage kind of a column.
type Type uint8

const (
	Object Type = iota
	Int
	Float
	Bool
	Datetime
	Category
	String
)

// All lists the canonical types in the order they are reported to clients.
var All = []Type{Int, Float, String, Bool, Datetime, Category, Object}

var ErrInvalidType = errors.New("invalid type")

// String returns the wire tag of the type.
func (t Type) String() string {
	switch t {
	case Int:
		return "int64"
	case Float:
		return "float64"
	case Bool:
		return "bool"
	case Datetime:
		return "datetime64"
	case Category:
		return "category"
	case String:
		return "string"
	default:
		return "object"
	}
}

// StorageDescriptor is the native descriptor a column receives when it is cast to t.
func (t Type) StorageDescriptor() string {
	switch t {
	case Int:
		return "Int64"
	case Float:
		return "float64"
	case Bool:
		return "boolean"
	case Datetime:
		return "datetime64[ns]"
	case Category:
		return "category"
	case String:
		return "string"
	default:
		return "object"
	}
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

var aliases = map[string]Type{
	"int":      Int,
	"float":    Float,
	"datetime": Datetime,
	"str":      String,
}

// Parse resolves a wire tag (or one of its short aliases) to a Type.
func Parse(s string) (Type, error) {
	for _, t := range All {
		if s == t.String() {
			return t, nil
		}
	}
	if t, ok := aliases[s]; ok {
		return t, nil
	}
	return Object, &InvalidTypeError{Name: s}
}

// InvalidTypeError is returned by Parse for names outside the canonical set.
type InvalidTypeError struct {
	Name string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("Invalid type: %s. Valid types: %s", e.Name, strings.Join(ValidNames(), ", "))
}

func (e *InvalidTypeError) Unwrap() error {
	return ErrInvalidType
}

func ValidNames() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.String()
	}
	return names
}
