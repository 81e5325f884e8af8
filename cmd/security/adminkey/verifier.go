package adminkey

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync"
)

// Verifier checks presented admin keys against one configured hash.
//
// Argon2id runs once per distinct key; after a successful match the SHA-256
// of the key is remembered so repeat requests with the same key skip the KDF.
// Failed attempts always pay the full cost.
type Verifier struct {
	cfg     Config
	encoded string

	mu       sync.RWMutex
	accepted [sha256.Size]byte
	hasHit   bool
}

// NewVerifier validates encodedHash up front. An empty hash yields ErrNotConfigured.
func NewVerifier(cfg Config, encodedHash string) (*Verifier, error) {
	if encodedHash == "" {
		return nil, ErrNotConfigured
	}
	params, _, _, err := decode(encodedHash)
	if err != nil {
		return nil, err
	}
	if !withinBounds(params, cfg.Params) {
		return nil, ErrInvalidHash
	}
	return &Verifier{cfg: cfg, encoded: encodedHash}, nil
}

// Check reports whether key is the admin key.
func (v *Verifier) Check(key string) bool {
	if v == nil || key == "" {
		return false
	}
	digest := sha256.Sum256([]byte(key))

	v.mu.RLock()
	hit := v.hasHit && subtle.ConstantTimeCompare(digest[:], v.accepted[:]) == 1
	v.mu.RUnlock()
	if hit {
		return true
	}

	ok, err := v.cfg.Verify(v.encoded, key)
	if err != nil || !ok {
		return false
	}

	v.mu.Lock()
	v.accepted = digest
	v.hasHit = true
	v.mu.Unlock()
	return true
}
