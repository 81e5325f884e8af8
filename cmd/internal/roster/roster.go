// Package roster supplies the candidate lists that voting sessions are scoped to.
//
// Rosters are owned by the administrative subsystem; this package only reads
// them. A division's roster is the ordered list of teachers (with the subject
// they teach to that division) that students may rank.
package roster

import (
	"context"
	"errors"
)

var (
	// ErrDivisionNotFound is returned when a division code is unknown to the roster.
	ErrDivisionNotFound = errors.New("division not found")

	// ErrInvalidDivisionCode is returned for codes that are not DEPT-YEAR-SECTION.
	ErrInvalidDivisionCode = errors.New("invalid division code")

	// ErrInvalidRoster is returned when roster data is inconsistent (duplicate ids, blanks).
	ErrInvalidRoster = errors.New("invalid roster")
)

// Candidate is one rankable teacher within a division.
type Candidate struct {
	ID           string
	Name         string
	SubjectLabel string
	DivisionCode string
}

// Provider returns the roster for a division.
//
// Implementations return ErrDivisionNotFound for unknown or unparsable codes
// and must be safe for concurrent use.
type Provider interface {
	Roster(ctx context.Context, divisionCode string) ([]Candidate, error)
}

// IDs returns the candidate ids in roster order.
func IDs(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

// Index maps candidate id to candidate.
func Index(cs []Candidate) map[string]Candidate {
	out := make(map[string]Candidate, len(cs))
	for _, c := range cs {
		out[c.ID] = c
	}
	return out
}
