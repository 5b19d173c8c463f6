package partitioner

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/danthegoodman1/dfgrid/dtype"
)

type (
	PartitionPlan struct {
		Func string   `json:"func" validate:"required"`
		Args []string `json:"args"`
		As   string   `json:"as" validate:"required"`
	}

	PartitionFunc func(row map[string]any, args []string) (string, error)
)

var (
	Functions = make(map[string]PartitionFunc)

	ErrFuncNotFound = errors.New("partition function not found")

	ErrMissingArgs       = errors.New("missing args")
	ErrMissingColumns    = errors.New("missing one or more columns specified in args")
	ErrInvalidColumnType = errors.New("invalid column type")
	ErrNullValue         = errors.New("null value in partition column")
)

func init() {
	RegisterFunctions()
}

func RegisterFunctions() {
	timeFunc := func(format func(t time.Time) string) PartitionFunc {
		return func(row map[string]any, args []string) (string, error) {
			t, err := parseTimeFunc(row, args)
			if err != nil {
				return "", fmt.Errorf("error in parseTimeFunc: %w", err)
			}
			return format(t), nil
		}
	}

	Functions["toDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Day())
	})
	Functions["toMonth"] = timeFunc(func(t time.Time) string {
		return fmt.Sprintf("%02d", int(t.Month()))
	})
	Functions["toYear"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Year())
	})
	Functions["toYearDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.YearDay())
	})
	Functions["toYearWeek"] = timeFunc(func(t time.Time) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-%02d", year, week)
	})
	Functions["toWeekDay"] = timeFunc(func(t time.Time) string {
		return t.Weekday().String()
	})
	// value partitions by a column's rendered value
	Functions["value"] = func(row map[string]any, args []string) (string, error) {
		if len(args) == 0 {
			return "", ErrMissingArgs
		}
		v, exists := row[args[0]]
		if !exists {
			return "", ErrMissingColumns
		}
		if dtype.IsNull(v) {
			return "", ErrNullValue
		}
		return url.PathEscape(dtype.Render(v)), nil
	}
}

// Validate checks that every plan names a known function and an output name.
func Validate(partitioners []PartitionPlan) error {
	for _, plan := range partitioners {
		if _, ok := Functions[plan.Func]; !ok {
			return fmt.Errorf("%w: %s", ErrFuncNotFound, plan.Func)
		}
		if plan.As == "" {
			return fmt.Errorf("partition function %s has no output name", plan.Func)
		}
	}
	return nil
}

func GetRowPartition(row map[string]any, partitioners []PartitionPlan) (string, error) {
	var finalParts []string
	for _, partFunc := range partitioners {
		f, ok := Functions[partFunc.Func]
		if !ok {
			return "", ErrFuncNotFound
		}

		s, err := f(row, partFunc.Args)
		if err != nil {
			return "", fmt.Errorf("error processing partition function %s: %w", partFunc.Func, err)
		}
		finalParts = append(finalParts, fmt.Sprintf("%s=%s", partFunc.As, s))
	}
	return strings.Join(finalParts, "/"), nil
}

func parseTimeFunc(row map[string]any, args []string) (t time.Time, err error) {
	if len(args) == 0 {
		err = ErrMissingArgs
		return
	}

	key := args[0]

	if key == "now()" {
		return time.Now(), nil
	}

	value, exists := row[key]
	if !exists {
		err = ErrMissingColumns
		return
	}

	switch v := value.(type) {
	case nil:
		err = ErrNullValue
	case time.Time:
		t = v
	case string:
		t, err = dtype.ParseTime(v)
		if err != nil {
			err = fmt.Errorf("error in ParseTime for string: %w", err)
		}
	case float64:
		// epoch milliseconds
		t = time.UnixMilli(int64(v)).UTC()
	case int64:
		t = time.UnixMilli(v).UTC()
	default:
		err = ErrInvalidColumnType
	}
	return
}
