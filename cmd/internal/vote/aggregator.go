package vote

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
	"github.com/MH469Arya/ProfRankSystem/cmd/internal/vote/borda"
)

// RankingOptions tunes ComputeRankings.
type RankingOptions struct {
	// IncludeAll lists roster candidates that received no votes, with zero points.
	IncludeAll bool
}

// Standing is one row of a division's ranking.
type Standing struct {
	Rank         int
	CandidateID  string
	Name         string
	SubjectLabel string
	Points       int
	Appearances  int

	// OnRoster is false for candidates that were ranked on a ballot but have
	// since left the roster.
	OnRoster bool
}

// Rankings is the aggregate result for a division.
type Rankings struct {
	DivisionCode string
	BallotCount  int
	Standings    []Standing
}

// Aggregator turns stored ballots into standings. It never writes.
type Aggregator struct {
	ballots BallotReader
	rosters roster.Provider
	opts    options
}

// NewAggregator constructs an Aggregator.
func NewAggregator(ballots BallotReader, rosters roster.Provider, opts ...Option) (*Aggregator, error) {
	if ballots == nil || rosters == nil {
		return nil, ErrInvalidInput
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Aggregator{ballots: ballots, rosters: rosters, opts: o}, nil
}

// ComputeRankings scores every committed ballot of a division.
// It is safe to call while ballots are being submitted; the result reflects
// some consistent prefix of committed ballots.
func (a *Aggregator) ComputeRankings(ctx context.Context, divisionCode string, opts RankingOptions) (Rankings, error) {
	if a == nil {
		return Rankings{}, ErrInvalidInput
	}
	ctx, span := tracer.Start(ctx, "vote.ComputeRankings")
	defer span.End()

	r, err := a.compute(ctx, divisionCode, opts)
	if err != nil {
		spanFail(span, err)
		return Rankings{}, err
	}
	span.SetAttributes(
		attribute.String("division", r.DivisionCode),
		attribute.Int("ballots", r.BallotCount),
	)
	a.opts.metrics.rankingComputed()
	return r, nil
}

func (a *Aggregator) compute(ctx context.Context, divisionCode string, opts RankingOptions) (Rankings, error) {
	div, err := roster.NormalizeDivisionCode(divisionCode)
	if err != nil {
		return Rankings{}, ErrDivisionNotFound
	}
	candidates, err := a.rosters.Roster(ctx, div)
	if err != nil {
		return Rankings{}, err
	}
	stored, err := a.ballots.ListBallots(ctx, div)
	if err != nil {
		return Rankings{}, err
	}

	rankings := make([][]string, len(stored))
	for i, b := range stored {
		rankings[i] = b.OrderedCandidateIDs
	}
	scores := borda.Compute(rankings, roster.IDs(candidates), opts.IncludeAll)

	index := roster.Index(candidates)
	out := Rankings{
		DivisionCode: div,
		BallotCount:  len(stored),
		Standings:    make([]Standing, 0, len(scores)),
	}
	for _, s := range scores {
		c, ok := index[s.CandidateID]
		out.Standings = append(out.Standings, Standing{
			Rank:         s.Rank,
			CandidateID:  s.CandidateID,
			Name:         c.Name,
			SubjectLabel: c.SubjectLabel,
			Points:       s.Points,
			Appearances:  s.Appearances,
			OnRoster:     ok,
		})
	}
	return out, nil
}
