// Package template provides the in-memory model of template documents: the
// declarative schemas that drive request and response transformation.
package template

import (
	"strings"
)

// FieldType is the closed set of field types a template may declare.
type FieldType int

const (
	// TypeUnknown marks a label outside the closed set. Resolution fails for
	// such fields with an unknown-type error.
	TypeUnknown FieldType = iota
	TypeBoolean
	TypeInt
	TypeLong
	TypeDecimal
	TypeString
	TypeOption
	TypeIntOption
	TypeFixed
	TypeIntArray
	TypeLongArray
	TypeStringArray
	TypeObject
	TypeObjectArray
	TypeClientID
	TypeService
	TypeOperation
	TypeVersion

	// TypeTotal is the number of field types including TypeUnknown.
	TypeTotal = int(iota)
)

var typeNames = [...]string{
	TypeUnknown:     "unknown",
	TypeBoolean:     "boolean",
	TypeInt:         "int",
	TypeLong:        "long",
	TypeDecimal:     "decimal",
	TypeString:      "string",
	TypeOption:      "option",
	TypeIntOption:   "int-option",
	TypeFixed:       "fixed",
	TypeIntArray:    "int-array",
	TypeLongArray:   "long-array",
	TypeStringArray: "string-array",
	TypeObject:      "object",
	TypeObjectArray: "object-array",
	TypeClientID:    "client-id",
	TypeService:     "service",
	TypeOperation:   "operation",
	TypeVersion:     "version",
}

// typeAliases maps accepted labels to types. Older templates spell some
// types differently.
var typeAliases = map[string]FieldType{
	"integer":       TypeInt,
	"integer-array": TypeIntArray,
	"clientid":      TypeClientID,
	"int_option":    TypeIntOption,
}

// ParseFieldType maps a label to a FieldType. Labels are case-insensitive.
// Unrecognized labels return TypeUnknown.
func ParseFieldType(label string) FieldType {
	l := strings.ToLower(strings.TrimSpace(label))
	for i := 1; i < TypeTotal; i++ {
		if typeNames[i] == l {
			return FieldType(i)
		}
	}
	if t, ok := typeAliases[l]; ok {
		return t
	}
	return TypeUnknown
}

// String returns the canonical label.
func (t FieldType) String() string {
	if t < 0 || int(t) >= TypeTotal {
		return typeNames[TypeUnknown]
	}
	return typeNames[t]
}

// IsArray reports whether t is a scalar array type.
func (t FieldType) IsArray() bool {
	return t == TypeIntArray || t == TypeLongArray || t == TypeStringArray
}

// IsComposite reports whether t carries child fields.
func (t FieldType) IsComposite() bool {
	return t == TypeObject || t == TypeObjectArray
}

// IsAmbient reports whether t is sourced from request metadata rather than
// the payload.
func (t FieldType) IsAmbient() bool {
	switch t {
	case TypeClientID, TypeService, TypeOperation, TypeVersion:
		return true
	default:
		return false
	}
}
