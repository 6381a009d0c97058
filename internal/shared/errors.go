package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates an unknown tenant or a token mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingPrincipal occurs when a handler runs without the auth middleware.
	ErrMissingPrincipal = errors.New("request principal missing")
)
