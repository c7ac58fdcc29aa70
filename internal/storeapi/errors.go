package storeapi

import (
	"errors"
	"fmt"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
)

// Error is returned for every failed store API call. Kind decides whether a
// call is retried; callers never need to inspect Message.
type Error struct {
	Op         string
	Kind       domain.FailureKind
	StatusCode int
	Message    string
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient. Only network-class
// failures qualify; timeouts are excluded because the write may have landed.
func (e *Error) Retryable() bool {
	return e.Kind == domain.FailureNetwork
}

// KindOf returns the failure kind of err, or FailureServer when err did not
// come from this package
func KindOf(err error) domain.FailureKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return domain.FailureServer
}

// AttemptsOf returns how many attempts were made before err was returned
func AttemptsOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Attempts
	}
	return 1
}

// MessageOf returns the user-facing message for err
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// errorBody is the error envelope used by the store API
type errorBody struct {
	Error string `json:"error"`
}
