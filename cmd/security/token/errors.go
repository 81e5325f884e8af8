package token

import "errors"

// HMAC policy failures. HasherFromEnv returns them only when a key is required.
var (
	ErrHMACKeyMissing  = errors.New("token HMAC key missing")
	ErrHMACKeyTooShort = errors.New("token HMAC key too short")
)
