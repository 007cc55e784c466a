package errors

import (
	"errors"
	"fmt"
)

// Common error types for the API
var (
	// Authentication errors
	ErrMissingFields      = errors.New("please fill all the fields")
	ErrInvalidCredentials = errors.New("invalid credential")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNoSession          = errors.New("no session")

	// Token errors
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")

	// Resource errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
