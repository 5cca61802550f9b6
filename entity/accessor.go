package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/airagroup/dobee/schema"
)

// Accessor reads and writes one scalar property of an entity type.
type Accessor struct {
	Name string
	Get  func(Entity) any
	Set  func(Entity, any) error
}

// Accessors is the static accessor table of an entity type, built once and
// shared by all instances.
type Accessors struct {
	fields []Accessor
	index  map[string]int
}

// NewAccessors builds an accessor table. Later fields replace earlier ones
// with the same name.
func NewAccessors(fields ...Accessor) *Accessors {
	a := &Accessors{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if i, ok := a.index[f.Name]; ok {
			a.fields[i] = f
			continue
		}
		a.index[f.Name] = len(a.fields)
		a.fields = append(a.fields, f)
	}
	return a
}

// Lookup returns the accessor of a property.
func (a *Accessors) Lookup(name string) (Accessor, bool) {
	if a == nil {
		return Accessor{}, false
	}
	i, ok := a.index[name]
	if !ok {
		return Accessor{}, false
	}
	return a.fields[i], true
}

// Has reports whether the table holds an accessor for name.
func (a *Accessors) Has(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

// Names returns the property names in declaration order.
func (a *Accessors) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, len(a.fields))
	for i, f := range a.fields {
		names[i] = f.Name
	}
	return names
}

// Get reads a property of e.
func (a *Accessors) Get(e Entity, name string) (any, bool) {
	f, ok := a.Lookup(name)
	if !ok {
		return nil, false
	}
	return f.Get(e), true
}

// Set writes a property of e, converting v to the field type.
func (a *Accessors) Set(e Entity, name string, v any) error {
	f, ok := a.Lookup(name)
	if !ok {
		return fmt.Errorf("dobee/entity: %s has no property %q", e.EntityName(), name)
	}
	return f.Set(e, v)
}

// Field returns the accessor of a property held as a V on entity type E.
func Field[E Entity, V any](name string, get func(E) V, set func(E, V)) Accessor {
	return Accessor{
		Name: name,
		Get:  func(e Entity) any { return get(e.(E)) },
		Set: func(e Entity, v any) error {
			x, err := Convert[V](v)
			if err != nil {
				return fmt.Errorf("dobee/entity: %s.%s: %w", e.EntityName(), name, err)
			}
			set(e.(E), x)
			return nil
		},
	}
}

// Convert converts a driver value, as scanned from a row, to V. Supported
// targets are string, bool, int, int32, int64, float32, float64, time.Time,
// pointers to them for nullable columns, and any type v already has.
// A nil value converts to the zero V.
func Convert[V any](v any) (V, error) {
	var zero V
	if x, ok := v.(V); ok {
		return x, nil
	}
	if v == nil {
		return zero, nil
	}
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		out, err = toString(v)
	case bool:
		out, err = toBool(v)
	case int:
		n, e := schema.ToInt64(v)
		out, err = int(n), e
	case int32:
		n, e := schema.ToInt64(v)
		if e == nil && (n < math.MinInt32 || n > math.MaxInt32) {
			e = fmt.Errorf("%d overflows int32", n)
		}
		out, err = int32(n), e
	case int64:
		out, err = schema.ToInt64(v)
	case float32:
		f, e := schema.ToFloat64(v)
		out, err = float32(f), e
	case float64:
		out, err = schema.ToFloat64(v)
	case time.Time:
		out, err = toTime(v)
	case *string:
		s, e := toString(v)
		out, err = &s, e
	case *bool:
		b, e := toBool(v)
		out, err = &b, e
	case *int:
		n, e := schema.ToInt64(v)
		i := int(n)
		out, err = &i, e
	case *int64:
		n, e := schema.ToInt64(v)
		out, err = &n, e
	case *float64:
		f, e := schema.ToFloat64(v)
		out, err = &f, e
	case *time.Time:
		t, e := toTime(v)
		out, err = &t, e
	default:
		return zero, fmt.Errorf("cannot convert %T to %T", v, zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(V), nil
}

func toString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return schema.FormatDatetime(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func toBool(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		return parseBool(v)
	case []byte:
		return parseBool(string(v))
	}
	n, err := schema.ToInt64(v)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// toTime parses datetime columns. MySQL returns them as text unless the
// DSN sets parseTime.
func toTime(v any) (time.Time, error) {
	var s string
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time.Time", v)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return time.Time{}, nil
	}
	for _, layout := range []string{schema.DatetimeLayout, time.RFC3339Nano, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as datetime", s)
}
