package errors

import (
	"errors"
	"fmt"
)

// Common error types for the auth broker
var (
	// Redirect / state validation errors. These are deliberately
	// indistinguishable to callers: a bad signature, malformed payload, or
	// disallowed redirect origin all surface as ErrInvalidState or
	// ErrInvalidRedirectURI with no further detail.
	ErrInvalidState       = errors.New("invalid state parameter")
	ErrInvalidRedirectURI = errors.New("invalid redirect_uri")

	// Provider errors
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrProviderDenied        = errors.New("provider reported an error")
	ErrMissingCodeOrState    = errors.New("missing code or state parameter")

	// Session errors
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = errors.New("session expired")

	// Bot platform errors
	ErrImageTooLarge    = errors.New("image must be 1MB or less")
	ErrUnsupportedImage = errors.New("image must be PNG or JPEG")

	// General errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
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
