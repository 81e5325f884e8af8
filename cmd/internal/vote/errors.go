package vote

import (
	"errors"
	"fmt"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
)

var (
	// ErrDivisionNotFound is returned when the roster does not know a division.
	ErrDivisionNotFound = roster.ErrDivisionNotFound

	// ErrInvalidToken is returned for unknown or malformed tokens and for a
	// division that does not match the session's division.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredSession is returned once a session's window has elapsed.
	ErrExpiredSession = errors.New("session expired")

	// ErrDuplicateVote is returned when a token has already produced a ballot.
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrMalformedBallot is returned for empty, repeating or off-roster rankings.
	ErrMalformedBallot = errors.New("malformed ballot")

	// ErrInvalidInput is returned for programmer errors (nil deps, blank ids).
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// Malformed ballot reasons.
const (
	ReasonEmpty            = "empty"
	ReasonDuplicate        = "duplicate"
	ReasonUnknownCandidate = "unknown_candidate"
	ReasonTooLong          = "too_long"
)

// MalformedBallotError describes why a ranking was rejected.
type MalformedBallotError struct {
	Reason      string
	CandidateID string
}

func (e *MalformedBallotError) Error() string {
	if e.CandidateID == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedBallot.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s %q", ErrMalformedBallot.Error(), e.Reason, e.CandidateID)
}

func (e *MalformedBallotError) Unwrap() error { return ErrMalformedBallot }

// Reason maps an error to a stable label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDivisionNotFound):
		return "division_not_found"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrExpiredSession):
		return "session_expired"
	case errors.Is(err, ErrDuplicateVote):
		return "duplicate_vote"
	case errors.Is(err, ErrMalformedBallot):
		return "malformed_ballot"
	default:
		return "error"
	}
}
