// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or missing request fields.
	ErrValidation = errors.New("validation")

	// ErrConflictingID indicates the body id differs from the path id.
	ErrConflictingID = errors.New("conflicting identifier")

	// ErrPersistence indicates a create that did not store exactly one row.
	ErrPersistence = errors.New("persistence problem")

	// ErrNoRowsAffected indicates an update/delete that did not touch exactly one row.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")
)
