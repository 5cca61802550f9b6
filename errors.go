package dobee

import (
	"errors"
	"fmt"
)

// Standard sentinel errors. Configuration errors are fatal and surface before
// any statement is executed; execution errors carry the engine diagnostics.
var (
	// ErrUnknownOperation is returned when a where condition names an
	// operator outside the operator table.
	ErrUnknownOperation = errors.New("dobee: unknown operation")

	// ErrInvalidOperand is returned when a where condition gives an operator
	// the wrong number of values.
	ErrInvalidOperand = errors.New("dobee: invalid operand")

	// ErrInvalidPropertyType is returned when a property type is not one of
	// bool, int, float, string, text or datetime.
	ErrInvalidPropertyType = errors.New("dobee: invalid property type")

	// ErrInvalidRelation is returned when a relation is declared ambiguously
	// or cannot be resolved from the entity model.
	ErrInvalidRelation = errors.New("dobee: invalid relation")

	// ErrUnknownEntity is returned when an entity name is not declared in the model.
	ErrUnknownEntity = errors.New("dobee: unknown entity")

	// ErrDatabase is returned when the storage engine rejects a statement.
	ErrDatabase = errors.New("dobee: database error")

	// ErrConnection is returned when a connection cannot be established.
	ErrConnection = errors.New("dobee: connection error")
)

// UnknownOperationError reports an operator token that is not recognized.
type UnknownOperationError struct {
	Operator string
}

// Error returns the error string.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("dobee: operator %q is unknown", e.Operator)
}

// Is reports whether the target error matches UnknownOperationError.
func (e *UnknownOperationError) Is(err error) bool {
	return err == ErrUnknownOperation
}

// NewUnknownOperationError returns a new UnknownOperationError.
func NewUnknownOperationError(op string) *UnknownOperationError {
	return &UnknownOperationError{Operator: op}
}

// IsUnknownOperation returns true if the error is an UnknownOperationError.
func IsUnknownOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownOperationError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownOperation)
}

// OperandError reports an operator given the wrong number of values.
type OperandError struct {
	Operator string
	Property string
	Want     int
	Got      int
}

// Error returns the error string.
func (e *OperandError) Error() string {
	return fmt.Sprintf("dobee: %s on %q needs %d values, got %d", e.Operator, e.Property, e.Want, e.Got)
}

// Is reports whether the target error matches OperandError.
func (e *OperandError) Is(err error) bool {
	return err == ErrInvalidOperand
}

// NewOperandError returns a new OperandError.
func NewOperandError(op, property string, want, got int) *OperandError {
	return &OperandError{Operator: op, Property: property, Want: want, Got: got}
}

// IsOperandError returns true if the error is an OperandError.
func IsOperandError(err error) bool {
	if err == nil {
		return false
	}
	var e *OperandError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidOperand)
}

// InvalidPropertyTypeError reports a property whose type cannot be mapped to
// a placeholder type, or a property the model does not declare.
type InvalidPropertyTypeError struct {
	Entity   string // Optional
	Property string // Optional
	Type     string
}

// Error returns the error string.
func (e *InvalidPropertyTypeError) Error() string {
	if e.Entity != "" && e.Property != "" {
		return fmt.Sprintf("dobee: %q is not a valid property type (%s.%s)", e.Type, e.Entity, e.Property)
	}
	return fmt.Sprintf("dobee: %q is not a valid property type", e.Type)
}

// Is reports whether the target error matches InvalidPropertyTypeError.
func (e *InvalidPropertyTypeError) Is(err error) bool {
	return err == ErrInvalidPropertyType
}

// NewInvalidPropertyTypeError returns a new InvalidPropertyTypeError.
func NewInvalidPropertyTypeError(entity, property, typ string) *InvalidPropertyTypeError {
	return &InvalidPropertyTypeError{Entity: entity, Property: property, Type: typ}
}

// IsInvalidPropertyType returns true if the error is an InvalidPropertyTypeError.
func IsInvalidPropertyType(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidPropertyTypeError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidPropertyType)
}

// RelationError reports a relation that is ambiguous or unresolvable.
type RelationError struct {
	Entity  string
	Related string
	Msg     string
}

// Error returns the error string.
func (e *RelationError) Error() string {
	return fmt.Sprintf("dobee: relation %s -> %s: %s", e.Entity, e.Related, e.Msg)
}

// Is reports whether the target error matches RelationError.
func (e *RelationError) Is(err error) bool {
	return err == ErrInvalidRelation
}

// NewRelationError returns a new RelationError.
func NewRelationError(entity, related, msg string) *RelationError {
	return &RelationError{Entity: entity, Related: related, Msg: msg}
}

// IsRelationError returns true if the error is a RelationError.
func IsRelationError(err error) bool {
	if err == nil {
		return false
	}
	var e *RelationError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidRelation)
}

// UnknownEntityError reports an entity name missing from the model.
type UnknownEntityError struct {
	Entity string
}

// Error returns the error string.
func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("dobee: entity %q is not declared", e.Entity)
}

// Is reports whether the target error matches UnknownEntityError.
func (e *UnknownEntityError) Is(err error) bool {
	return err == ErrUnknownEntity
}

// NewUnknownEntityError returns a new UnknownEntityError.
func NewUnknownEntityError(entity string) *UnknownEntityError {
	return &UnknownEntityError{Entity: entity}
}

// IsUnknownEntity returns true if the error is an UnknownEntityError.
func IsUnknownEntity(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownEntityError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownEntity)
}

// IsConfigError reports whether err stems from a configuration problem in the
// entity model or the query options rather than from the storage engine.
func IsConfigError(err error) bool {
	return IsUnknownOperation(err) ||
		IsOperandError(err) ||
		IsInvalidPropertyType(err) ||
		IsRelationError(err) ||
		IsUnknownEntity(err)
}

// DatabaseError wraps a statement rejected by the storage engine.
type DatabaseError struct {
	Code    int    // Engine error code, 0 if unknown
	Message string // Engine error message
	Query   string // Statement text
	Err     error  // Underlying driver error
}

// Error returns the error string.
func (e *DatabaseError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("dobee: database error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("dobee: database error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches DatabaseError.
func (e *DatabaseError) Is(err error) bool {
	return err == ErrDatabase
}

// NewDatabaseError returns a new DatabaseError.
func NewDatabaseError(code int, msg, query string, err error) *DatabaseError {
	return &DatabaseError{Code: code, Message: msg, Query: query, Err: err}
}

// IsDatabaseError returns true if the error is a DatabaseError.
func IsDatabaseError(err error) bool {
	if err == nil {
		return false
	}
	var e *DatabaseError
	return errors.As(err, &e)
}

// DefaultConnectionMessage is used when a ConnectionError carries no message.
const DefaultConnectionMessage = "there was an error connecting to the database"

// ConnectionError reports a failure to reach the database.
type ConnectionError struct {
	Msg string
	Err error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = DefaultConnectionMessage
	}
	if e.Err != nil {
		return fmt.Sprintf("dobee: %s: %v", msg, e.Err)
	}
	return "dobee: " + msg
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ConnectionError.
func (e *ConnectionError) Is(err error) bool {
	return err == ErrConnection
}

// NewConnectionError returns a new ConnectionError with the default message.
func NewConnectionError(err error) *ConnectionError {
	return &ConnectionError{Err: err}
}

// IsConnectionError returns true if the error is a ConnectionError.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConnectionError
	return errors.As(err, &e)
}
