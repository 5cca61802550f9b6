package schema

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/airagroup/dobee"
)

// DatetimeLayout is the storage format of datetime properties.
const DatetimeLayout = "2006-01-02 15:04:05"

// Value converts v to the representation bound for a property of type t.
// Booleans become 0 or 1, integers int64 and floats float64. Datetime
// values given as time.Time are converted to UTC and formatted with
// DatetimeLayout. A nil value stays nil and is bound as NULL.
func (t PropertyType) Value(v any) (any, error) {
	b, err := t.BindType()
	if err != nil {
		return nil, err
	}
	if t == TypeDatetime {
		if tm, ok := v.(time.Time); ok {
			return FormatDatetime(tm), nil
		}
	}
	return b.Value(v)
}

// Value converts v to the representation bound for placeholder type b.
func (b BindType) Value(v any) (any, error) {
	v, err := indirect(v)
	if err != nil || v == nil {
		return nil, err
	}
	switch b {
	case BindInt:
		return toInt64(v)
	case BindFloat:
		return toFloat64(v)
	case BindString:
		switch v := v.(type) {
		case []byte:
			return string(v), nil
		case time.Time:
			return FormatDatetime(v), nil
		default:
			return v, nil
		}
	default:
		return nil, dobee.NewInvalidPropertyTypeError("", "", string(b))
	}
}

// FormatDatetime renders t in UTC with DatetimeLayout. Datetimes are
// stored without an offset and read back as UTC.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(DatetimeLayout)
}

func indirect(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if dv, ok := v.(driver.Valuer); ok {
		return dv.Value()
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	return rv.Interface(), nil
}

// ToInt64 converts a driver or Go value to int64 the way integer
// properties are bound.
func ToInt64(v any) (int64, error) {
	v, err := indirect(v)
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

// ToFloat64 converts a driver or Go value to float64.
func ToFloat64(v any) (float64, error) {
	v, err := indirect(v)
	if err != nil {
		return 0, err
	}
	return toFloat64(v)
}

func toInt64(v any) (int64, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("dobee/schema: %d overflows int64", v)
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("dobee/schema: %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case []byte:
		return toInt64(string(v))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt64(f)
		}
		switch strings.ToLower(s) {
		case "true":
			return 1, nil
		case "false", "":
			return 0, nil
		}
		return 0, fmt.Errorf("dobee/schema: cannot convert %q to int", v)
	default:
		return 0, fmt.Errorf("dobee/schema: cannot convert %T to int", v)
	}
}

// floatToInt64 accepts integral floats within the int64 range only.
func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("dobee/schema: %v is not an int64", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch v := v.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case []byte:
		return toFloat64(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("dobee/schema: cannot convert %q to float", v)
		}
		return f, nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("dobee/schema: cannot convert %T to float", v)
		}
		return float64(n), nil
	}
}

// KeyString returns a canonical string for a primary key so that keys read
// from the database and keys held in memory compare equal.
func KeyString(v any) string {
	v, _ = indirect(v)
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	}
	if n, err := toInt64(v); err == nil {
		if f, ok := v.(float64); !ok || f == math.Trunc(f) {
			return strconv.FormatInt(n, 10)
		}
	}
	return fmt.Sprint(v)
}
