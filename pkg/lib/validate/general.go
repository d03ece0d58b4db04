package validate

import (
	"reflect"
	"strings"
)

// NotNil checks that the value is neither nil nor a typed nil pointer, map,
// slice, channel or func.
func NotNil(value any, msg string, args ...any) error {
	if value == nil {
		return createError(msg, args...)
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if v.IsNil() {
			return createError(msg, args...)
		}
	default:
	}
	return nil
}

// NotBlank checks that the string contains something other than whitespace.
func NotBlank(value string, msg string, args ...any) error {
	if strings.TrimSpace(value) == "" {
		return createError(msg, args...)
	}
	return nil
}
