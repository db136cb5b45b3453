package transform

import (
	"errors"
	"fmt"
)

// Kind classifies a resolution failure.
type Kind string

// Resolution failure kinds.
const (
	KindMissingRequired  Kind = "missing_required"
	KindTypeMismatch     Kind = "type_mismatch"
	KindRangeViolation   Kind = "range_violation"
	KindLengthViolation  Kind = "length_violation"
	KindSizeViolation    Kind = "size_violation"
	KindPatternViolation Kind = "pattern_violation"
	KindInvalidOption    Kind = "invalid_option"
	KindTemplateError    Kind = "template_error"
	KindUnknownType      Kind = "unknown_type"
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrMissingRequired  = errors.New("missing required value")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrRangeViolation   = errors.New("value out of range")
	ErrLengthViolation  = errors.New("length out of range")
	ErrSizeViolation    = errors.New("too many elements")
	ErrPatternViolation = errors.New("pattern mismatch")
	ErrInvalidOption    = errors.New("invalid option")
	ErrTemplate         = errors.New("malformed template")
	ErrUnknownType      = errors.New("unknown field type")
)

var kindSentinels = map[Kind]error{
	KindMissingRequired:  ErrMissingRequired,
	KindTypeMismatch:     ErrTypeMismatch,
	KindRangeViolation:   ErrRangeViolation,
	KindLengthViolation:  ErrLengthViolation,
	KindSizeViolation:    ErrSizeViolation,
	KindPatternViolation: ErrPatternViolation,
	KindInvalidOption:    ErrInvalidOption,
	KindTemplateError:    ErrTemplate,
	KindUnknownType:      ErrUnknownType,
}

// Error is the single failure type raised by resolution. Field is the lookup
// key of the offending field.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the kind's sentinel error and any *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Kind == "" || t.Kind == e.Kind
	}
	return kindSentinels[e.Kind] == target
}

func newError(kind Kind, field, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of err, or "" when err is not a resolution error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsTemplateFault reports whether err is caused by the template rather than
// by the payload. Such errors are server-side configuration faults.
func IsTemplateFault(err error) bool {
	switch KindOf(err) {
	case KindTemplateError, KindUnknownType:
		return true
	default:
		return false
	}
}
