// Package common defines the shared constants and sentinel errors used across
// the JointBank server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors. The HTTP layer maps each one to a fixed status
	// code and message.
	ErrorInvalid           = errors.New("invalid request")
	ErrorUnauthenticated   = errors.New("unauthenticated")
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrorInsufficientFunds = errors.New("insufficient funds")
	ErrorInternal          = errors.New("internal error")

	// ErrVersionConflict is returned when a balance changed between read and
	// conditional write, or the database aborted a serializable transaction.
	ErrVersionConflict = errors.New("version conflict")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
