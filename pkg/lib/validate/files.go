package validate

import (
	"os"
)

// IsFile checks if the path points to a regular file.
// It returns an error if the path is not a regular file, using the provided message and arguments.
func IsFile(path string, msg string, args ...any) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return createError(msg, args...)
	}
	return nil
}

// IsReadable checks if the file is readable by the current user.
// It returns an error if the file is not readable, using the provided message and arguments.
func IsReadable(path string, msg string, args ...any) error {
	file, err := os.Open(path)
	if err != nil {
		return createError(msg, args...)
	}
	file.Close()
	return nil
}
