// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExhausted indicates the user has no remaining generations today.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrGenerationInProgress indicates an active generation already exists for the user.
	ErrGenerationInProgress = errors.New("generation in progress")

	// ErrProviderFailure indicates the image provider returned no usable result.
	ErrProviderFailure = errors.New("provider failure")

	// ErrInvalidParams indicates malformed generation parameters.
	ErrInvalidParams = errors.New("invalid parameters")
)
