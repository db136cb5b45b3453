package template

import (
	"github.com/shopspring/decimal"
)

// Field describes one output field of a template: its type, where its value
// comes from and the constraints the value must satisfy.
//
// Fields are immutable once a Document is loaded and may be shared by any
// number of concurrent resolutions.
type Field struct {
	// Name is the output key.
	Name string

	// Type is the field type. TypeLabel keeps the label as written, which
	// matters for TypeUnknown.
	Type      FieldType
	TypeLabel string

	// Source is the lookup key in the data context. Empty means Name.
	Source string

	Required bool
	Default  interface{}

	// Inclusive numeric bounds for int, long and decimal values and for
	// array elements.
	MinValue *decimal.Decimal
	MaxValue *decimal.Decimal

	// Inclusive string length bounds.
	MinLength *int
	MaxLength *int

	// MaxSize bounds the number of input elements of array types.
	MaxSize *int

	// Pattern must match the whole textual form of string and decimal values.
	Pattern string

	// Options is the allowed value set of option and int-option fields.
	Options []interface{}

	// FixedValue is emitted unconditionally by fixed fields.
	FixedValue interface{}

	// ChildName is the wrapper key of object-array elements.
	ChildName string

	// Children are the nested fields of object and object-array types. A nil
	// slice means the template did not declare them as a list.
	Children []*Field
}

// LookupKey returns the key used to find the field's value.
func (f *Field) LookupKey() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Name
}

// Label returns the type label for messages.
func (f *Field) Label() string {
	if f.TypeLabel != "" {
		return f.TypeLabel
	}
	return f.Type.String()
}

// Document is one side (request or response) of a template.
type Document struct {
	// FastForward disables transformation: the payload passes through as is.
	FastForward bool

	// Fields are resolved in order.
	Fields []*Field
}

// Definition is a named template holding both the request and the response
// document of one API operation.
type Definition struct {
	Name     string
	Request  *Document
	Response *Document
}

// RequestDocument returns the request side, or an empty document.
func (d *Definition) RequestDocument() *Document {
	if d == nil || d.Request == nil {
		return &Document{}
	}
	return d.Request
}

// ResponseDocument returns the response side, or an empty document.
func (d *Definition) ResponseDocument() *Document {
	if d == nil || d.Response == nil {
		return &Document{}
	}
	return d.Response
}

// Bound is a helper for building numeric bounds in code.
func Bound(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// Size is a helper for building length and size limits in code.
func Size(n int) *int {
	return &n
}
