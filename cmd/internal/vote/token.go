package vote

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"
)

const (
	minTokenBytes = 16
	maxTokenBytes = 64

	// maxTokenLen bounds what is accepted before hashing; base64url of 64 bytes is 86 chars.
	maxTokenLen = 128
)

func newOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// wellFormedToken rejects tokens that could never have been issued, without a store lookup.
func wellFormedToken(tok string) bool {
	if len(tok) < 8 || len(tok) > maxTokenLen {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// normalizeNow pins timestamps to UTC microseconds so every store round-trips them exactly.
func normalizeNow(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC().Truncate(time.Microsecond)
}

func trim(s string) string { return strings.TrimSpace(s) }
