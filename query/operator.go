package query

import (
	"strings"

	"github.com/airagroup/dobee"
)

// Operator is a where comparison.
type Operator int

// Operators.
const (
	OpEQ Operator = iota + 1
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpLike
	OpIn
	OpNotIn
	OpIsNull
	OpNotNull
	OpBetween
)

var operatorTokens = map[string]Operator{
	"=":       OpEQ,
	"eq":      OpEQ,
	"!=":      OpNEQ,
	"neq":     OpNEQ,
	">":       OpGT,
	"gt":      OpGT,
	">=":      OpGTE,
	"gte":     OpGTE,
	"<":       OpLT,
	"lt":      OpLT,
	"<=":      OpLTE,
	"lte":     OpLTE,
	"%%":      OpLike,
	"like":    OpLike,
	"~":       OpIn,
	"in":      OpIn,
	"!~":      OpNotIn,
	"nin":     OpNotIn,
	"0":       OpIsNull,
	"null":    OpIsNull,
	"!0":      OpNotNull,
	"nn":      OpNotNull,
	"between": OpBetween,
}

// ParseOperator resolves an operator token, case-insensitively.
func ParseOperator(tok string) (Operator, error) {
	if op, ok := operatorTokens[strings.ToLower(strings.TrimSpace(tok))]; ok {
		return op, nil
	}
	return 0, dobee.NewUnknownOperationError(tok)
}

// Fragment renders the operator with n placeholders for set operators.
// An empty set renders a constant predicate instead: nothing is in the
// empty set and everything is outside of it.
func (o Operator) Fragment(n int) string {
	switch o {
	case OpEQ:
		return "= ?"
	case OpNEQ:
		return "!= ?"
	case OpGT:
		return "> ?"
	case OpGTE:
		return ">= ?"
	case OpLT:
		return "< ?"
	case OpLTE:
		return "<= ?"
	case OpLike:
		return "LIKE ?"
	case OpIn:
		return "IN(" + placeholders(n) + ")"
	case OpNotIn:
		return "NOT IN(" + placeholders(n) + ")"
	case OpIsNull:
		return "IS NULL"
	case OpNotNull:
		return "IS NOT NULL"
	case OpBetween:
		return "BETWEEN ? AND ?"
	default:
		return ""
	}
}

// IsSet reports whether the operator takes a list of operands.
func (o Operator) IsSet() bool { return o == OpIn || o == OpNotIn }

// Binds reports whether the operator binds any parameter.
func (o Operator) Binds() bool { return o != OpIsNull && o != OpNotNull }

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
