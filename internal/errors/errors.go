package errors

import (
	"errors"
	"fmt"
)

// Common error types shared across the auth client
var (
	// Configuration errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid token store type")

	// Token errors
	ErrNoRefreshToken = errors.New("no refresh token")

	// Storage errors
	ErrStoreClosed   = errors.New("token store closed")
	ErrSealedStorage = errors.New("sealed token storage could not be opened")
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
