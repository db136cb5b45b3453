package transform

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vyrodovalexey/paramgw/internal/constraint"
	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

// toBool is true for a case-insensitive "true" or a positive integer.
func toBool(value interface{}) bool {
	text := strings.TrimSpace(textOf(value))
	if strings.EqualFold(text, "true") {
		return true
	}
	if constraint.IsLong(text) {
		n, _ := constraint.ParseLong(text)
		return n > 0
	}
	return false
}

func toInteger(f *template.Field, key string, value interface{}, checkBounds bool) (int, error) {
	text := strings.TrimSpace(textOf(value))
	if !constraint.IsInteger(text) {
		return 0, newError(KindTypeMismatch, key, "%s parameter should be number", key)
	}
	if checkBounds {
		if err := checkRange(f, key, text, key); err != nil {
			return 0, err
		}
	}
	n, _ := constraint.ParseInteger(text)
	return n, nil
}

func toLong(f *template.Field, key string, value interface{}, checkBounds bool) (int64, error) {
	text := strings.TrimSpace(textOf(value))
	if !constraint.IsLong(text) {
		return 0, newError(KindTypeMismatch, key, "%s parameter should be number", key)
	}
	if checkBounds {
		if err := checkRange(f, key, text, key); err != nil {
			return 0, err
		}
	}
	n, _ := constraint.ParseLong(text)
	return n, nil
}

func toDecimal(f *template.Field, key string, value interface{}, checkBounds bool) (decimal.Decimal, error) {
	text := strings.TrimSpace(textOf(value))
	if !constraint.IsDecimal(text) {
		return decimal.Zero, newError(KindTypeMismatch, key, "%s parameter should be decimal", key)
	}
	if checkBounds {
		if err := checkPattern(f, key, text, "%s must follow %s"); err != nil {
			return decimal.Zero, err
		}
		if err := checkRange(f, key, text, key); err != nil {
			return decimal.Zero, err
		}
	}
	d, _ := constraint.ParseDecimal(text)
	return d, nil
}

// checkRange applies the inclusive numeric bounds of f to text. subject names
// the value in messages.
func checkRange(f *template.Field, key, text, subject string) error {
	if f.MinValue == nil && f.MaxValue == nil {
		return nil
	}
	d, err := constraint.ParseDecimal(text)
	if err != nil {
		return newError(KindTypeMismatch, key, "%s parameter should be number", key)
	}

	above, below := constraint.OutOfRange(d, f.MinValue, f.MaxValue)
	switch {
	case above:
		return newError(KindRangeViolation, key, "%s must be under %s", subject, f.MaxValue.String())
	case below:
		return newError(KindRangeViolation, key, "%s must be over %s", subject, f.MinValue.String())
	}
	return nil
}

func checkElementRange(f *template.Field, key, text string) error {
	return checkRange(f, key, text, "all "+key+"'s")
}

// checkPattern matches text against the field pattern. Empty text is not
// checked. format receives the key and the pattern.
func checkPattern(f *template.Field, key, text, format string) error {
	if f.Pattern == "" || strings.TrimSpace(text) == "" {
		return nil
	}
	ok, err := constraint.Matches(f.Pattern, text)
	if err != nil {
		return &Error{
			Kind:    KindTemplateError,
			Field:   key,
			Message: key + " pattern is invalid: " + err.Error(),
			Cause:   err,
		}
	}
	if !ok {
		return newError(KindPatternViolation, key, format, key, f.Pattern)
	}
	return nil
}

// checkLength applies the inclusive length bounds of f. subject names the
// measured value in messages.
func checkLength(f *template.Field, key, text, subject string) error {
	if f.MaxLength != nil && constraint.LongerThan(text, *f.MaxLength) {
		return newError(KindLengthViolation, key, "%s must be under %d", subject, *f.MaxLength)
	}
	if f.MinLength != nil && constraint.ShorterThan(text, *f.MinLength) {
		return newError(KindLengthViolation, key, "%s must be over %d", subject, *f.MinLength)
	}
	return nil
}

// checkString validates the text form of value and returns value itself,
// so a number sent to a string field keeps its wire type.
func checkString(f *template.Field, key string, value interface{}) (interface{}, error) {
	if !isScalar(value) {
		return nil, newError(KindTypeMismatch, key, "%s parameter should be string", key)
	}
	text := textOf(value)
	if err := checkPattern(f, key, text, "%s must follow %s"); err != nil {
		return nil, err
	}
	if err := checkLength(f, key, text, key+" length"); err != nil {
		return nil, err
	}
	return value, nil
}

func requireOptions(f *template.Field, key string) error {
	if len(f.Options) == 0 {
		return newError(KindTemplateError, key, "%s options should not be null/blank", key)
	}
	return nil
}

func invalidOption(f *template.Field, key string) error {
	labels := make([]string, len(f.Options))
	for i, o := range f.Options {
		labels[i] = textOf(o)
	}
	return newError(KindInvalidOption, key, "set %s from %s", key, strings.Join(labels, ","))
}

// checkOption verifies set membership by textual form and returns value
// unchanged.
func checkOption(f *template.Field, key string, value interface{}) (interface{}, error) {
	if err := requireOptions(f, key); err != nil {
		return nil, err
	}
	text := textOf(value)
	for _, o := range f.Options {
		if textOf(o) == text {
			return value, nil
		}
	}
	return nil, invalidOption(f, key)
}

func checkIntOption(f *template.Field, key string, value interface{}) (int, error) {
	if err := requireOptions(f, key); err != nil {
		return 0, err
	}
	text := strings.TrimSpace(textOf(value))
	if !constraint.IsInteger(text) {
		return 0, newError(KindTypeMismatch, key, "%s parameter should be number", key)
	}
	n, _ := constraint.ParseInteger(text)
	for _, o := range f.Options {
		candidate, err := constraint.ParseInteger(strings.TrimSpace(textOf(o)))
		if err == nil && candidate == n {
			return n, nil
		}
	}
	return 0, invalidOption(f, key)
}

func isScalar(v interface{}) bool {
	if _, ok := payload.AsLookup(v); ok {
		return false
	}
	switch v.(type) {
	case []interface{}, []string, []int, []int64, []float64, []*payload.Map:
		return false
	}
	return true
}
