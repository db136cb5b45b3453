package constraint

import (
	"fmt"
	"regexp"
	"sync"
	"unicode/utf8"
)

// patternCache holds compiled, fully anchored patterns keyed by source.
var patternCache sync.Map

// Compile returns the anchored form of pattern. The whole input must match;
// a substring match is not enough.
func Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	actual, _ := patternCache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// Matches reports whether text follows pattern entirely.
func Matches(pattern, text string) (bool, error) {
	re, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// Length returns the number of characters in s.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// LongerThan reports whether s has more than maxLength characters.
func LongerThan(s string, maxLength int) bool {
	return Length(s) > maxLength
}

// ShorterThan reports whether s has fewer than minLength characters.
func ShorterThan(s string, minLength int) bool {
	return Length(s) < minLength
}

// ExceedsSize reports whether a collection of n elements is over maxSize.
func ExceedsSize(n, maxSize int) bool {
	return n > maxSize
}
