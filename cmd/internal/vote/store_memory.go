package vote

import (
	"context"
	"sync"
)

// MemoryStore is a dev-only Store used when no database is configured.
// Writers serialize on one mutex. Readers see per-division ballot slices that
// are replaced, never mutated, so ListBallots takes no lock.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session // token hash -> session
	hashes   map[string]struct{} // token hashes that already own a ballot

	ballots sync.Map // division code -> []Ballot
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		hashes:   make(map[string]struct{}),
	}
}

// Close is a noop.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateSession(ctx context.Context, in SessionRecord) (Session, error) {
	if in.ID == "" || in.TokenHash == "" || in.DivisionCode == "" {
		return Session{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[in.TokenHash]; exists {
		return Session{}, ErrInvalidInput
	}
	sess := &Session{
		ID:           in.ID,
		DivisionCode: in.DivisionCode,
		IssuedAt:     in.IssuedAt,
		ExpiresAt:    in.ExpiresAt,
		Status:       StatusActive,
	}
	s.sessions[in.TokenHash] = sess
	return copySession(sess), nil
}

func (s *MemoryStore) GetSession(ctx context.Context, tokenHash string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tokenHash]
	if !ok {
		return Session{}, ErrInvalidToken
	}
	return copySession(sess), nil
}

func (s *MemoryStore) CommitBallot(ctx context.Context, in BallotRecord) (Ballot, error) {
	if in.ID == "" || in.TokenHash == "" || len(in.OrderedCandidateIDs) == 0 {
		return Ballot{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Ballot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[in.TokenHash]
	if !ok {
		return Ballot{}, ErrInvalidToken
	}
	if _, used := s.hashes[in.TokenHash]; used {
		return Ballot{}, ErrDuplicateVote
	}
	if err := checkConsumable(*sess, in); err != nil {
		return Ballot{}, err
	}

	b := Ballot{
		ID:                  in.ID,
		TokenHash:           in.TokenHash,
		DivisionCode:        in.DivisionCode,
		OrderedCandidateIDs: append([]string(nil), in.OrderedCandidateIDs...),
		SubmittedAt:         in.SubmittedAt,
	}

	at := in.SubmittedAt
	sess.Status = StatusConsumed
	sess.ConsumedAt = &at
	s.hashes[in.TokenHash] = struct{}{}

	var prev []Ballot
	if v, ok := s.ballots.Load(in.DivisionCode); ok {
		prev = v.([]Ballot)
	}
	next := make([]Ballot, len(prev), len(prev)+1)
	copy(next, prev)
	s.ballots.Store(in.DivisionCode, append(next, b))

	return b, nil
}

func (s *MemoryStore) ListBallots(ctx context.Context, divisionCode string) ([]Ballot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.ballots.Load(divisionCode)
	if !ok {
		return nil, nil
	}
	// Ballots are appended under the writer lock with ULIDs minted in time
	// order, so the slice is already in submission order.
	src := v.([]Ballot)
	out := make([]Ballot, len(src))
	copy(out, src)
	return out, nil
}

func copySession(s *Session) Session {
	out := *s
	if s.ConsumedAt != nil {
		at := *s.ConsumedAt
		out.ConsumedAt = &at
	}
	return out
}
