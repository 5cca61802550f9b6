package schema

import (
	"strings"

	"github.com/airagroup/dobee"
)

// PropertyType is the declared type of a scalar property.
type PropertyType string

// Property types.
const (
	TypeBool     PropertyType = "bool"
	TypeInt      PropertyType = "int"
	TypeFloat    PropertyType = "float"
	TypeString   PropertyType = "string"
	TypeText     PropertyType = "text"
	TypeDatetime PropertyType = "datetime"
)

// BindType is the placeholder type code of a bound statement parameter.
type BindType string

// Placeholder type codes.
const (
	BindInt    BindType = "i"
	BindFloat  BindType = "d"
	BindString BindType = "s"
)

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	switch t {
	case TypeBool, TypeInt, TypeFloat, TypeString, TypeText, TypeDatetime:
		return true
	}
	return false
}

// BindType maps the property type to its placeholder type code.
func (t PropertyType) BindType() (BindType, error) {
	switch t {
	case TypeBool, TypeInt:
		return BindInt, nil
	case TypeFloat:
		return BindFloat, nil
	case TypeString, TypeText, TypeDatetime:
		return BindString, nil
	default:
		return "", dobee.NewInvalidPropertyTypeError("", "", string(t))
	}
}

// ParsePropertyType parses a property type name, case-insensitively.
func ParsePropertyType(s string) (PropertyType, error) {
	t := PropertyType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", dobee.NewInvalidPropertyTypeError("", "", s)
	}
	return t, nil
}

// ParseBindType accepts either a placeholder code (i, d, s) or a property
// type name and returns the placeholder code it stands for.
func ParseBindType(s string) (BindType, error) {
	switch b := BindType(strings.ToLower(s)); b {
	case BindInt, BindFloat, BindString:
		return b, nil
	}
	t, err := ParsePropertyType(s)
	if err != nil {
		return "", err
	}
	return t.BindType()
}

// Property is a declared scalar property.
type Property struct {
	Name string
	Type PropertyType
}
