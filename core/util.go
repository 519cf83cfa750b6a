package core

import (
	"reflect"
	"strings"

	"github.com/kat-co/vala"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// IsSet checks that an interface dependency was provided.
// Unlike vala.IsNotNil it accepts implementations on non-nilable kinds (structs, ints...).
func IsSet(obtained interface{}, paramName string) vala.Checker {
	return func() (bool, string) {
		msg := "Parameter was nil: " + paramName
		if obtained == nil {
			return false, msg
		}
		switch v := reflect.ValueOf(obtained); v.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
			return !v.IsNil(), msg
		}
		return true, msg
	}
}
