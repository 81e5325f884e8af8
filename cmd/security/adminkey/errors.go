package adminkey

import "errors"

// Public, stable errors for callers.
var (
	ErrKeyTooShort   = errors.New("admin key too short")
	ErrKeyTooLong    = errors.New("admin key too long")
	ErrInvalidHash   = errors.New("invalid admin key hash")
	ErrNotConfigured = errors.New("admin key not configured")
)
