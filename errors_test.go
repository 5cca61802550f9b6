package dobee_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airagroup/dobee"
)

func TestUnknownOperationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := dobee.NewUnknownOperationError("approx")
		assert.Equal(t, `dobee: operator "approx" is unknown`, err.Error())
	})

	t.Run("IsUnknownOperation", func(t *testing.T) {
		err := dobee.NewUnknownOperationError("approx")
		assert.True(t, errors.Is(err, dobee.ErrUnknownOperation))
		assert.True(t, dobee.IsUnknownOperation(fmt.Errorf("where: %w", err)))
		assert.True(t, dobee.IsConfigError(err))
		assert.False(t, dobee.IsUnknownOperation(nil))
		assert.False(t, dobee.IsUnknownOperation(errors.New("other")))
	})
}

func TestOperandError(t *testing.T) {
	err := dobee.NewOperandError("between", "this.total", 2, 1)
	assert.Equal(t, `dobee: between on "this.total" needs 2 values, got 1`, err.Error())
	assert.True(t, errors.Is(err, dobee.ErrInvalidOperand))
	assert.True(t, dobee.IsOperandError(fmt.Errorf("where: %w", err)))
	assert.True(t, dobee.IsConfigError(err))
	assert.False(t, dobee.IsUnknownOperation(err))
	assert.False(t, dobee.IsOperandError(nil))
}

func TestInvalidPropertyTypeError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		assert.Equal(t, `dobee: "money" is not a valid property type`,
			dobee.NewInvalidPropertyTypeError("", "", "money").Error())
		assert.Equal(t, `dobee: "money" is not a valid property type (order.total)`,
			dobee.NewInvalidPropertyTypeError("order", "total", "money").Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := dobee.NewInvalidPropertyTypeError("order", "total", "money")
		assert.True(t, errors.Is(err, dobee.ErrInvalidPropertyType))
		assert.True(t, dobee.IsInvalidPropertyType(fmt.Errorf("wrap: %w", err)))
		assert.True(t, dobee.IsConfigError(err))
	})
}

func TestRelationError(t *testing.T) {
	err := dobee.NewRelationError("order", "item", "both sides claim ownership")
	assert.Equal(t, "dobee: relation order -> item: both sides claim ownership", err.Error())
	assert.True(t, errors.Is(err, dobee.ErrInvalidRelation))
	assert.True(t, dobee.IsRelationError(err))
	assert.True(t, dobee.IsConfigError(err))
	assert.False(t, dobee.IsDatabaseError(err))
}

func TestUnknownEntityError(t *testing.T) {
	err := dobee.NewUnknownEntityError("ghost")
	assert.Equal(t, `dobee: entity "ghost" is not declared`, err.Error())
	assert.True(t, dobee.IsUnknownEntity(err))
	assert.True(t, dobee.IsConfigError(err))
}

func TestDatabaseError(t *testing.T) {
	t.Run("WithCode", func(t *testing.T) {
		cause := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"}
		err := dobee.NewDatabaseError(int(cause.Number), cause.Message, "INSERT INTO dobee_order", cause)
		assert.Equal(t, "dobee: database error 1062: Duplicate entry '1' for key 'PRIMARY'", err.Error())
		assert.True(t, errors.Is(err, dobee.ErrDatabase))

		var me *mysql.MySQLError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, uint16(1062), me.Number)
	})

	t.Run("WithoutCode", func(t *testing.T) {
		err := dobee.NewDatabaseError(0, "no such table", "", errors.New("no such table"))
		assert.Equal(t, "dobee: database error: no such table", err.Error())
		assert.True(t, dobee.IsDatabaseError(fmt.Errorf("save: %w", err)))
		assert.False(t, dobee.IsConfigError(err))
	})
}

func TestConnectionError(t *testing.T) {
	err := dobee.NewConnectionError(errors.New("dial tcp: connection refused"))
	assert.Equal(t, "dobee: there was an error connecting to the database: dial tcp: connection refused", err.Error())
	assert.True(t, errors.Is(err, dobee.ErrConnection))
	assert.True(t, dobee.IsConnectionError(fmt.Errorf("open: %w", err)))

	bare := &dobee.ConnectionError{}
	assert.Equal(t, "dobee: there was an error connecting to the database", bare.Error())
}
