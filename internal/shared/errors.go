package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller's role lacks permission.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation wraps malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict reports a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition indicates a status change that is not allowed.
	ErrInvalidTransition = errors.New("status transition invalid")
)
