// Package constraint provides the side-effect-free checks shared by the
// request and response transformers: numeric recognition and comparison,
// full-string pattern matching and inclusive length/size bounds.
package constraint

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// IsInteger reports whether text is a base-10 32-bit signed integer.
func IsInteger(text string) bool {
	_, err := strconv.ParseInt(text, 10, 32)
	return err == nil
}

// IsLong reports whether text is a base-10 64-bit signed integer.
func IsLong(text string) bool {
	_, err := strconv.ParseInt(text, 10, 64)
	return err == nil
}

// IsDecimal reports whether text is a decimal number such as "12", "-0.5"
// or "1.2e3".
func IsDecimal(text string) bool {
	_, err := decimal.NewFromString(text)
	return err == nil
}

// ParseInteger parses a 32-bit integer.
func ParseInteger(text string) (int, error) {
	v, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// ParseLong parses a 64-bit integer.
func ParseLong(text string) (int64, error) {
	return strconv.ParseInt(text, 10, 64)
}

// ParseDecimal parses an exact decimal.
func ParseDecimal(text string) (decimal.Decimal, error) {
	return decimal.NewFromString(text)
}

// GreaterThan reports whether value > bound. Both arguments are numeric
// textual forms; comparison is exact. Unparseable input compares false.
func GreaterThan(value, bound string) bool {
	c, ok := compare(value, bound)
	return ok && c > 0
}

// LessThan reports whether value < bound, with the same rules as GreaterThan.
func LessThan(value, bound string) bool {
	c, ok := compare(value, bound)
	return ok && c < 0
}

func compare(a, b string) (int, bool) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return 0, false
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return 0, false
	}
	return da.Cmp(db), true
}

// OutOfRange reports which inclusive bound value violates. It returns
// (above, below); at most one is true. A nil bound is not checked.
func OutOfRange(value decimal.Decimal, minValue, maxValue *decimal.Decimal) (above, below bool) {
	if maxValue != nil && value.Cmp(*maxValue) > 0 {
		return true, false
	}
	if minValue != nil && value.Cmp(*minValue) < 0 {
		return false, true
	}
	return false, false
}
