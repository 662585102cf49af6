package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an authenticated caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConstraintViolation marks a storage uniqueness/constraint conflict. Safe to retry.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrStorageUnavailable marks connection or timeout failures from the backing store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
