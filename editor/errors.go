package editor

import (
	"errors"
	"fmt"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/table"
)

// Kind classifies why an edit was rejected.
type Kind uint8

const (
	Internal Kind = iota
	NotFound
	OutOfRange
	NotExist
	AlreadyExists
	InvalidArgument
	ConversionFailure
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case OutOfRange:
		return "out_of_range"
	case NotExist:
		return "not_exist"
	case AlreadyExists:
		return "already_exists"
	case InvalidArgument:
		return "invalid_argument"
	case ConversionFailure:
		return "conversion_failure"
	default:
		return "internal"
	}
}

// Error is a rejected edit. Its message is what clients see in the result's error
// field. errors.Is matches any *Error of the same Kind with an empty message, so the
// Err* values below work as sentinels.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

var (
	ErrNotFound          = &Error{Kind: NotFound}
	ErrOutOfRange        = &Error{Kind: OutOfRange}
	ErrNotExist          = &Error{Kind: NotExist}
	ErrAlreadyExists     = &Error{Kind: AlreadyExists}
	ErrInvalidArgument   = &Error{Kind: InvalidArgument}
	ErrConversionFailure = &Error{Kind: ConversionFailure}
	ErrInternal          = &Error{Kind: Internal}
)

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func notFound(id string) *Error {
	return newError(NotFound, nil, "DataFrame not found: %s", id)
}

func rowOutOfRange(row int) *Error {
	return newError(OutOfRange, nil, "Row index out of range: %d", row)
}

func columnNotFound(column string) *Error {
	return newError(NotExist, nil, "Column not found: %s", column)
}

func columnExists(column string) *Error {
	return newError(AlreadyExists, nil, "Column already exists: %s", column)
}

func reservedName(column string) *Error {
	return newError(InvalidArgument, table.ErrReservedName, "Column name is reserved: %s", column)
}

// KindOf returns the Kind of err, Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// asEditError maps errors raised while building the new table onto the taxonomy,
// keeping the underlying message.
func asEditError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var conv *dtype.ConversionError
	if errors.As(err, &conv) {
		return &Error{Kind: ConversionFailure, Msg: conv.Error(), Err: err}
	}
	return &Error{Kind: Internal, Msg: err.Error(), Err: err}
}
