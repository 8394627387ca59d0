package domain

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by the client, the normalizer and the
// engine wraps exactly one of these.
var (
	// ErrNetwork indicates the request could not complete.
	ErrNetwork = errors.New("network failure")

	// ErrServerRejected indicates a non-success HTTP status.
	ErrServerRejected = errors.New("server rejected request")

	// ErrParse indicates the response body could not be decoded.
	ErrParse = errors.New("response could not be parsed")

	// ErrCancelled indicates the operation was superseded or its view closed.
	// It is never shown to the user.
	ErrCancelled = errors.New("operation cancelled")

	// ErrValidation indicates a local precondition was not met. No request is sent.
	ErrValidation = errors.New("validation failed")
)

var (
	ErrEmptyContent   = fmt.Errorf("%w: content cannot be empty", ErrValidation)
	ErrContentTooLong = fmt.Errorf("%w: content exceeds character limit", ErrValidation)
	ErrTooManyTags    = fmt.Errorf("%w: at most %d tags allowed", ErrValidation, MaxTags)
	ErrNoIdentity     = fmt.Errorf("%w: sign in to do that", ErrValidation)
	ErrParentNotFound = fmt.Errorf("%w: parent comment not found", ErrValidation)
	ErrNotSynced      = fmt.Errorf("%w: item is not synced yet", ErrValidation)
	ErrUnknownEntity  = fmt.Errorf("%w: no such item", ErrValidation)

	// ErrInFlight is returned when a mutation for the same entity is still pending.
	ErrInFlight = errors.New("a change for this item is already in progress")
)

// RejectionError carries the status and optional message of a non-success response.
type RejectionError struct {
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrServerRejected) match.
func (e *RejectionError) Is(target error) bool {
	return target == ErrServerRejected
}

// IsCancelled reports whether err is a cancellation that must be discarded silently.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Classify names the failure class of err, for status lines and logs.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrServerRejected):
		return "rejected"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}
