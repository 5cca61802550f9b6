package sql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/airagroup/dobee"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQLite primary result codes.
const (
	sqliteConstraint = 19
)

// errorCoder is implemented by drivers exposing a numeric result code,
// for example modernc.org/sqlite.
type errorCoder interface {
	Code() int
}

// WrapError converts a driver error into the engine error taxonomy.
// Context errors pass through, broken connections become
// *dobee.ConnectionError and everything else *dobee.DatabaseError.
func WrapError(query string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("dialect/sql: %w", err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return dobee.NewConnectionError(err)
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return dobee.NewDatabaseError(int(e.Number), e.Message, query, err)
	}
	if e, ok := asError[errorCoder](err); ok {
		return dobee.NewDatabaseError(e.Code(), err.Error(), query, err)
	}
	return dobee.NewDatabaseError(0, err.Error(), query, err)
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlDuplicateEntry
	}
	if e, ok := asError[errorCoder](err); ok && e.Code()&0xff == sqliteConstraint {
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlForeignKeyParent || e.Number == mysqlForeignKeyChild
	}
	if e, ok := asError[errorCoder](err); ok && e.Code()&0xff == sqliteConstraint {
		return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlCheckConstraintViolate
	}
	if e, ok := asError[errorCoder](err); ok && e.Code()&0xff == sqliteConstraint {
		return strings.Contains(err.Error(), "CHECK constraint failed")
	}
	return false
}

// asError is a generic helper that unwraps err and returns the first error of type T.
func asError[T any](err error) (T, bool) {
	var target T
	if errors.As(err, &target) {
		return target, true
	}
	return target, false
}
