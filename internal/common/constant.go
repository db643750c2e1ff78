// Package common contains shared constants and sentinel errors used across
// the Yapplr auth components.
package common

import "time"

// AuthorizationHeaderName carries the session token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix of the Authorization header value.
const BearerPrefix = "Bearer "

// ResetTokenValidity is the fixed lifetime of a password reset token.
const ResetTokenValidity = 60 * time.Minute

// MinSecretKeyLength is the minimum HMAC key size accepted for session tokens.
const MinSecretKeyLength = 32

// MaxPasswordBytes is bcrypt's input limit; longer passwords are rejected
// rather than truncated.
const MaxPasswordBytes = 72
