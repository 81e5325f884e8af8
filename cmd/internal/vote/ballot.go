package vote

import (
	"strings"
	"time"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
)

// Ballot is one committed ranking. It is immutable once stored.
type Ballot struct {
	ID                  string
	TokenHash           string
	DivisionCode        string
	OrderedCandidateIDs []string
	SubmittedAt         time.Time
}

// BallotRecord is the payload for Store.CommitBallot.
type BallotRecord struct {
	ID                  string
	TokenHash           string
	DivisionCode        string
	OrderedCandidateIDs []string
	SubmittedAt         time.Time
}

// SubmitInput is an untrusted vote submission as received from a client.
type SubmitInput struct {
	Token               string
	DivisionCode        string
	OrderedCandidateIDs []string
}

// ValidateRanking checks a ranking against a division roster and returns the
// cleaned id list (trimmed, most preferred first).
// Errors are *MalformedBallotError.
func ValidateRanking(ids []string, candidates []roster.Candidate) ([]string, error) {
	if len(ids) == 0 {
		return nil, &MalformedBallotError{Reason: ReasonEmpty}
	}
	if len(ids) > len(candidates) {
		return nil, &MalformedBallotError{Reason: ReasonTooLong}
	}

	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}

	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; dup {
			return nil, &MalformedBallotError{Reason: ReasonDuplicate, CandidateID: id}
		}
		if _, ok := known[id]; !ok {
			return nil, &MalformedBallotError{Reason: ReasonUnknownCandidate, CandidateID: id}
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
