package vote

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
)

// Collector accepts ballots. Each token yields at most one ballot.
type Collector struct {
	issuer *Issuer
	opts   options
}

// NewCollector builds a Collector sharing the issuer's store and rosters.
// Options default to the issuer's.
func NewCollector(issuer *Issuer, opts ...Option) (*Collector, error) {
	if issuer == nil {
		return nil, ErrInvalidInput
	}
	o := issuer.opts
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return &Collector{issuer: issuer, opts: o}, nil
}

// SubmitBallot validates and commits a ranking in one atomic step.
//
// Checks run in a fixed order: token liveness, division match, roster
// lookup, ranking validation, commit. A rejected submission leaves the
// session untouched, so a student can fix a malformed ranking and retry.
func (c *Collector) SubmitBallot(ctx context.Context, now time.Time, in SubmitInput) (Ballot, error) {
	if c == nil || c.issuer == nil {
		return Ballot{}, ErrInvalidInput
	}
	ctx, span := tracer.Start(ctx, "vote.SubmitBallot")
	defer span.End()

	start := time.Now()
	b, err := c.submit(ctx, now, in)
	c.opts.metrics.ballotDone(err, time.Since(start))
	span.SetAttributes(attribute.String("result", Reason(err)))
	if err != nil {
		spanFail(span, err)
		return Ballot{}, err
	}
	span.SetAttributes(
		attribute.String("division", b.DivisionCode),
		attribute.Int("ranked", len(b.OrderedCandidateIDs)),
	)
	return b, nil
}

func (c *Collector) submit(ctx context.Context, now time.Time, in SubmitInput) (Ballot, error) {
	now = normalizeNow(now)

	sess, err := c.issuer.lookup(ctx, now, in.Token)
	if err != nil {
		return Ballot{}, err
	}

	div, err := roster.NormalizeDivisionCode(in.DivisionCode)
	if err != nil || div != sess.DivisionCode {
		return Ballot{}, ErrInvalidToken
	}

	candidates, err := c.issuer.rosters.Roster(ctx, div)
	if err != nil {
		return Ballot{}, err
	}
	ranking, err := ValidateRanking(in.OrderedCandidateIDs, candidates)
	if err != nil {
		return Ballot{}, err
	}

	id, err := c.opts.ids.New(now)
	if err != nil {
		return Ballot{}, err
	}
	return c.issuer.store.CommitBallot(ctx, BallotRecord{
		ID:                  id,
		TokenHash:           c.opts.hasher.Hash(trim(in.Token)),
		DivisionCode:        div,
		OrderedCandidateIDs: ranking,
		SubmittedAt:         now,
	})
}
