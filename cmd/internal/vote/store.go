package vote

import "context"

// SessionStore persists session metadata.
type SessionStore interface {
	// CreateSession inserts a new active session.
	CreateSession(ctx context.Context, in SessionRecord) (Session, error)

	// GetSession loads a session by token hash. Unknown hashes yield ErrInvalidToken.
	GetSession(ctx context.Context, tokenHash string) (Session, error)
}

// BallotReader reads committed ballots.
type BallotReader interface {
	// ListBallots returns the committed ballots of a division ordered by
	// submission time then id. It takes no locks that writers wait on.
	ListBallots(ctx context.Context, divisionCode string) ([]Ballot, error)
}

// Store is the persistence boundary for voting.
//
// CommitBallot is the single atomic step of the system: it must mark the
// session consumed and insert the ballot together, or do neither. When the
// session is not consumable at in.SubmittedAt it returns ErrInvalidToken,
// ErrExpiredSession or ErrDuplicateVote. A second ballot for the same token
// must fail with ErrDuplicateVote under any interleaving.
type Store interface {
	SessionStore
	BallotReader

	CommitBallot(ctx context.Context, in BallotRecord) (Ballot, error)

	Close() error
}
