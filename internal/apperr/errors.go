// Package apperr defines the error taxonomy shared by the catalog and booking packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound        = errors.New("listing not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrUnauthenticated        = errors.New("authentication required")
	ErrStoreUnavailable       = errors.New("store unavailable")
)

// ValidationError reports a caller-correctable input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid is shorthand for constructing a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CodeInvalidInput is the wire code of a *ValidationError.
const CodeInvalidInput = "invalid_input"

var codes = []struct {
	code string
	err  error
}{
	{"listing_not_found", ErrListingNotFound},
	{"booking_not_found", ErrBookingNotFound},
	{"user_not_found", ErrUserNotFound},
	{"invalid_state_transition", ErrInvalidStateTransition},
	{"permission_denied", ErrPermissionDenied},
	{"unauthenticated", ErrUnauthenticated},
	{"store_unavailable", ErrStoreUnavailable},
}

// Code returns the stable wire name of err's kind, or "" for errors outside
// the taxonomy.
func Code(err error) string {
	if IsValidation(err) {
		return CodeInvalidInput
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// FromCode is the inverse of Code. msg becomes the reason of a validation
// error; unknown codes yield nil.
func FromCode(code, msg string) error {
	if code == CodeInvalidInput {
		return &ValidationError{Reason: msg}
	}
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
