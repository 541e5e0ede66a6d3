// Package apperr defines the error kinds the API reports. Services wrap
// these sentinels with context via fmt.Errorf("...: %w", ...) and handlers
// map them to HTTP status codes with errors.Is, so callers can tell a
// missing record from a store that is down.
package apperr

import "errors"

var (
	// ErrNotAuthenticated means no valid session was presented for a
	// mutating call, or the session maps to no known user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound means the referenced record does not exist or does not
	// belong to the caller.
	ErrNotFound = errors.New("not found")

	// ErrPersistence means the underlying store was unreachable or
	// rejected the write. Distinct from ErrNotFound so callers can decide
	// retry vs abort.
	ErrPersistence = errors.New("persistence failure")

	// ErrValidation means the input was rejected before touching the
	// store (empty title, non-positive reward, unknown category).
	ErrValidation = errors.New("validation failure")
)
