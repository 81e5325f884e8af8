// Package token hashes voting-session tokens for server-side storage.
//
// Tokens are bearer secrets, so stores only ever see a 64-char hex digest:
// - SHA-256(token) when no key is configured (dev).
// - HMAC-SHA256(token, key) when PROFRANK_TOKEN_HMAC_KEY is set.
//
// With PROFRANK_REQUIRE_TOKEN_HMAC=true the caller must refuse to start
// without a key of at least MinHMACKeyBytes.
package token
