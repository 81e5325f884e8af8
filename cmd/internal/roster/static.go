package roster

import (
	"context"
	"fmt"
	"strings"
)

// StaticProvider serves rosters held in memory.
// It is immutable after construction and therefore safe for concurrent use.
type StaticProvider struct {
	divisions map[string][]Candidate
}

// NewStaticProvider validates and indexes rosters keyed by division code.
// Codes are normalized; each candidate's DivisionCode is set to its key.
func NewStaticProvider(rosters map[string][]Candidate) (*StaticProvider, error) {
	p := &StaticProvider{divisions: make(map[string][]Candidate, len(rosters))}
	for rawCode, cs := range rosters {
		code, err := NormalizeDivisionCode(rawCode)
		if err != nil {
			return nil, err
		}
		if _, dup := p.divisions[code]; dup {
			return nil, fmt.Errorf("%w: division %s listed twice", ErrInvalidRoster, code)
		}

		seen := make(map[string]struct{}, len(cs))
		list := make([]Candidate, 0, len(cs))
		for _, c := range cs {
			c.ID = strings.TrimSpace(c.ID)
			if c.ID == "" {
				return nil, fmt.Errorf("%w: blank candidate id in %s", ErrInvalidRoster, code)
			}
			if _, dup := seen[c.ID]; dup {
				return nil, fmt.Errorf("%w: candidate %s listed twice in %s", ErrInvalidRoster, c.ID, code)
			}
			seen[c.ID] = struct{}{}
			c.Name = strings.TrimSpace(c.Name)
			c.SubjectLabel = strings.TrimSpace(c.SubjectLabel)
			c.DivisionCode = code
			list = append(list, c)
		}
		p.divisions[code] = list
	}
	return p, nil
}

// Roster returns a copy of the division's candidates in roster order.
func (p *StaticProvider) Roster(ctx context.Context, divisionCode string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := NormalizeDivisionCode(divisionCode)
	if err != nil {
		return nil, ErrDivisionNotFound
	}
	cs, ok := p.divisions[code]
	if !ok {
		return nil, ErrDivisionNotFound
	}
	return append([]Candidate(nil), cs...), nil
}

// Divisions returns the known division codes.
func (p *StaticProvider) Divisions() []string {
	out := make([]string, 0, len(p.divisions))
	for code := range p.divisions {
		out = append(out, code)
	}
	return out
}
