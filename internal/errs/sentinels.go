// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation")

	// ErrAuth indicates rejected credentials or an invalid session token.
	ErrAuth = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique key collision (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is used by transports to report an absent entity.
	// Repositories signal absence with a nil result instead.
	ErrNotFound = errors.New("not found")
)
