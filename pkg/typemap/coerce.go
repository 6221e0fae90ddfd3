package typemap

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// DateLayout is the timestamp format the API emits and accepts.
const DateLayout = "2006-01-02T15:04:05.000-0700"

// Values are normalised to the shapes encoding/json produces when decoding a
// response (string, float64, bool), so a value read from the server and the same
// value set from Go code compare equal.

func passThrough(v any) (any, error) {
	return v, nil
}

func coerceText(tag string) CoerceFunc {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}

		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, &CoercionError{Tag: tag, Value: v, Err: err}
		}
		return s, nil
	}
}

func coerceNumber(tag string) CoerceFunc {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}

		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, &CoercionError{Tag: tag, Value: v, Err: err}
		}
		return f, nil
	}
}

func coerceInteger(v any) (any, error) {
	f, err := coerceNumber(Integer)(v)
	if err != nil || f == nil {
		return f, err
	}

	if n := f.(float64); n != math.Trunc(n) {
		return nil, &CoercionError{Tag: Integer, Value: v, Err: fmt.Errorf("not a whole number")}
	}
	return f, nil
}

func coerceBoolean(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, &CoercionError{Tag: Boolean, Value: v, Err: err}
	}
	return b, nil
}

// coerceDate keeps strings untouched and renders time values in DateLayout.
func coerceDate(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	case time.Time:
		return t.Format(DateLayout), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.Format(DateLayout), nil
	default:
		return nil, &CoercionError{Tag: Date, Value: v, Err: fmt.Errorf("expected a string or time.Time")}
	}
}
