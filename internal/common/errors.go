// Package common defines shared constants and errors used across the
// channelauth server and its tools. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Token errors (bad signature, malformed payload or expiry).
	ErrInvalidToken = errors.New("invalid token")

	// Service-level kinds. errors.Is(err, ErrorUnauthorized) is true for any
	// *Error of KindUnauthorized, whatever its message.
	ErrorInternal     = &Error{Kind: KindInternal}
	ErrorInvalidInput = &Error{Kind: KindInvalidInput}
	ErrorConflict     = &Error{Kind: KindConflict}
	ErrorUnauthorized = &Error{Kind: KindUnauthorized}
	ErrorNoSuchEntity = &Error{Kind: KindNotFound}
)
