package schema_test

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/schema"
)

func TestPropertyValue(t *testing.T) {
	placed := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	n := int64(7)
	tests := []struct {
		name string
		typ  schema.PropertyType
		in   any
		want any
	}{
		{"BoolTrue", schema.TypeBool, true, int64(1)},
		{"BoolFalse", schema.TypeBool, false, int64(0)},
		{"IntFromString", schema.TypeInt, "42", int64(42)},
		{"IntFromInt", schema.TypeInt, 42, int64(42)},
		{"IntFromPointer", schema.TypeInt, &n, int64(7)},
		{"IntFromNullInt", schema.TypeInt, sql.NullInt64{Int64: 3, Valid: true}, int64(3)},
		{"FloatFromString", schema.TypeFloat, "1.5", 1.5},
		{"FloatFromInt", schema.TypeFloat, 2, 2.0},
		{"String", schema.TypeString, "pen", "pen"},
		{"TextBytes", schema.TypeText, []byte("long"), "long"},
		{"Datetime", schema.TypeDatetime, placed, "2026-03-01 10:30:00"},
		{"DatetimeString", schema.TypeDatetime, "2026-03-01 10:30:00", "2026-03-01 10:30:00"},
		{"Nil", schema.TypeInt, nil, nil},
		{"NilPointer", schema.TypeInt, (*int64)(nil), nil},
		{"NullInt", schema.TypeInt, sql.NullInt64{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Value(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := schema.TypeInt.Value("abc")
	assert.Error(t, err)
	for _, in := range []any{2.5, float32(0.5), "3.7", ^uint(0), math.MaxFloat64} {
		_, err := schema.TypeInt.Value(in)
		assert.Error(t, err, "%v", in)
	}
	got, err := schema.TypeInt.Value(3.0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
	_, err = schema.PropertyType("money").Value(1)
	assert.True(t, dobee.IsInvalidPropertyType(err))
}

func TestDatetimeUTC(t *testing.T) {
	placed := time.Date(2024, 5, 1, 10, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	got, err := schema.TypeDatetime.Value(placed)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 08:30:00", got)
	got, err = schema.BindString.Value(placed)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 08:30:00", got)
	assert.Equal(t, "2024-05-01 08:30:00", schema.FormatDatetime(placed.UTC()))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "5", schema.KeyString(5))
	assert.Equal(t, "5", schema.KeyString(int64(5)))
	assert.Equal(t, "5", schema.KeyString("5"))
	assert.Equal(t, "5", schema.KeyString([]byte("5")))
	assert.Equal(t, "5", schema.KeyString(float64(5)))
	assert.Equal(t, "2.5", schema.KeyString(2.5))
	assert.Equal(t, "", schema.KeyString(nil))
	assert.Equal(t, "abc", schema.KeyString("abc"))
}
