// Package apperror defines the application's error taxonomy.
//
// Every failure a caller can recover from maps to one of the sentinel kinds
// below. Services return these; the HTTP layer translates them to status
// codes in handler/response.go. No kind should ever crash the process.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPartialEnrollment marks an enrollment where the store reports a
	// half-applied write. The wrapping AppError carries the user and
	// challenge IDs so the record can be reconciled.
	ErrPartialEnrollment = errors.New("partial enrollment")

	// ErrUnavailable is infrastructure-level: the store could not be
	// reached at all. Callers may retry with backoff before surfacing it.
	ErrUnavailable = errors.New("store unavailable")
)

type AppError struct {
	Err     error  // sentinel kind, for errors.Is
	Message string // human-readable message, shown directly by the UI
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// AlreadyEnrolled reports an idempotency violation: the user is already a
// participant of the challenge. No mutation happened.
func AlreadyEnrolled(userID, challengeID string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("user %s is already enrolled in challenge %s", userID, challengeID),
	}
}

// Conflict reports a uniqueness violation on a resource (e.g. an email
// address that is already registered).
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for a missing, malformed, or otherwise
// invalid credential. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// PartialEnrollment reports an enrollment the store could not fully apply or
// fully roll back. The IDs are embedded in the message so the operator (or an
// automated job) can reconcile the membership table against the count.
func PartialEnrollment(userID, challengeID string) *AppError {
	return &AppError{
		Err:     ErrPartialEnrollment,
		Message: fmt.Sprintf("enrollment of user %s in challenge %s was only partially applied", userID, challengeID),
	}
}

// Unavailable reports that the backing store is unreachable.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}
