// Package common defines shared constants and sentinel errors used across
// the Yapplr auth server and its clients. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors.
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("invalid email or password")
	ErrInvalidOrExpired = errors.New("invalid or expired reset token")
	ErrTooManyAttempts  = errors.New("too many attempts")
	ErrValidation       = errors.New("validation error")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Startup errors.
	ErrMisconfiguredSecret = errors.New("jwt secret key is missing or shorter than 32 bytes")
)
