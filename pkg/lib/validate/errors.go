package validate

import "fmt"

// createError builds the error returned by every validator. Callers usually
// wrap it with a coded error from bacerrors.
func createError(msg string, args ...any) error {
	return fmt.Errorf(msg, args...)
}
