// Package ids mints ULIDs for voting sessions and ballots.
//
// ULIDs sort by creation time, which gives ballots their audit order without a
// separate sequence.
package ids

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces strictly increasing ULIDs, including within one millisecond.
// It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns the next ULID string (26 chars) stamped with now.
func (g *Generator) New(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
