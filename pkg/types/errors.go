package types

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrVolunteerNotFound  = errors.New("volunteer not found")
	ErrDonationNotFound   = errors.New("donation not found")
	ErrDonationNotPending = errors.New("donation has already been reviewed")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrForbidden          = errors.New("role not permitted")
)

// ValidationError reports user input that was rejected before any write.
// Fields maps a form field name to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the first field message in key order, suitable for a
// single line notification.
func (e *ValidationError) Message() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "Please fill in all required fields"
	}
	return e.Fields[keys[0]]
}
