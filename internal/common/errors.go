// Package common defines sentinel errors shared by the repositories, the
// object synchronization services and the HTTP layer. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Object store errors. ErrBatchFailed is reported only when every
	// operation of a non-empty batch failed.
	ErrBatchFailed = errors.New("all store operations failed")
)
