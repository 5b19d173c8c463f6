package dtype

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCoerceInt(t *testing.T) {
	v, err := Coerce("42", Int)
	require.NoError(t, err)
	require.Equal(t, int64(42), v)

	v, err = Coerce("3.9", Int)
	require.NoError(t, err)
	require.Equal(t, int64(3), v)

	v, err = Coerce(json.Number("-7.5"), Int)
	require.NoError(t, err)
	require.Equal(t, int64(-7), v)

	v, err = Coerce(true, Int)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	_, err = Coerce("abc", Int)
	require.Error(t, err)
	require.Equal(t, "could not convert string to float: 'abc'", err.Error())

	_, err = Coerce(math.Inf(1), Int)
	require.Error(t, err)
}

func TestCoerceFloat(t *testing.T) {
	v, err := Coerce(nil, Float)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = Coerce(math.NaN(), Float)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = Coerce(" 2.5 ", Float)
	require.NoError(t, err)
	require.Equal(t, 2.5, v)

	v, err = Coerce(int64(4), Float)
	require.NoError(t, err)
	require.Equal(t, 4.0, v)
}

func TestCoerceBool(t *testing.T) {
	cases := map[any]bool{
		"YES":      true,
		"True":     true,
		"1":        true,
		"abc":      false,
		"false":    false,
		"":         false,
		" yes":     false,
		int64(0):   false,
		int64(5):   true,
		0.0:        false,
		true:       true,
		false:      false,
		"no":       false,
		"TRUE":     true,
		"0":        false,
		json.Number("2"): true,
	}
	for in, want := range cases {
		got, err := Coerce(in, Bool)
		require.NoError(t, err)
		require.Equal(t, want, got, "input %#v", in)
	}

	got, err := Coerce([]any{}, Bool)
	require.NoError(t, err)
	require.Equal(t, false, got)
}

func TestCoerceDatetime(t *testing.T) {
	v, err := Coerce("2024-03-05", Datetime)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), v)

	v, err = Coerce("2024-03-05T10:11:12Z", Datetime)
	require.NoError(t, err)
	require.True(t, v.(time.Time).Equal(time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC)))

	v, err = Coerce(int64(1_000_000_000), Datetime)
	require.NoError(t, err)
	require.Equal(t, time.Unix(1, 0).UTC(), v)

	_, err = Coerce("not a date", Datetime)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnparseableTime))

	require.Nil(t, CoerceOrNull("not a date", Datetime))
}

func TestCoerceText(t *testing.T) {
	for _, typ := range []Type{String, Object, Category} {
		v, err := Coerce(42.0, typ)
		require.NoError(t, err)
		require.Equal(t, "42.0", v)
	}

	v, _ := Coerce(true, String)
	require.Equal(t, "True", v)

	v, _ = Coerce(1e6, String)
	require.Equal(t, "1000000.0", v)

	v, _ = Coerce(int64(7), Category)
	require.Equal(t, "7", v)

	v, _ = Coerce(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Object)
	require.Equal(t, "2024-01-02 03:04:05", v)

	v, _ = Coerce(nil, String)
	require.Nil(t, v)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, int64(12), Normalize(json.Number("12")))
	require.Equal(t, 1.5, Normalize(json.Number("1.5")))
	require.Equal(t, "x", Normalize("x"))
}
