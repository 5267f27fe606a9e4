package services

import (
	"errors"
	"strings"
)

// Sentinel errors the controllers map onto HTTP responses. Wrapped messages
// carry the user-facing text.
var (
	// ErrValidation marks bad or missing input.
	ErrValidation = errors.New("validation")
	// ErrDuplicate marks a username/email that is already registered.
	ErrDuplicate = errors.New("duplicate")
	// ErrBadCredentials is deliberately generic: it never distinguishes an
	// unknown user from a wrong password.
	ErrBadCredentials = errors.New("invalid username/email or password")
	// ErrNotFound marks a missing entry or one owned by someone else.
	ErrNotFound = errors.New("not found")
)

// Message returns the user-facing text of a sentinel-wrapped error, without
// the sentinel prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrDuplicate, ErrNotFound} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
