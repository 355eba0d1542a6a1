package domain

import (
	"strings"
	"unique"
)

// InternedString is a value object that wraps a unique.Handle[string].
// Task identifiers and dependency references are compared on every scheduling
// step, so they are interned to make equality a pointer comparison.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString creates a new InternedString from a string.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// InternAll interns every string in strs, preserving order.
func InternAll(strs []string) []InternedString {
	if len(strs) == 0 {
		return nil
	}
	res := make([]InternedString, len(strs))
	for i, s := range strs {
		res[i] = NewInternedString(s)
	}
	return res
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether the value was never set or holds the empty string.
func (is InternedString) IsZero() bool {
	return is.String() == ""
}

// Compare orders two interned strings by their underlying value.
func (is InternedString) Compare(other InternedString) int {
	if is == other {
		return 0
	}
	return strings.Compare(is.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}
