package vote

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
)

var tracer = otel.Tracer("github.com/MH469Arya/ProfRankSystem/cmd/internal/vote")

// Issuer creates voting sessions and answers liveness checks.
type Issuer struct {
	cfg     Config
	store   Store
	rosters roster.Provider
	opts    options
}

// NewIssuer constructs an Issuer.
func NewIssuer(cfg Config, store Store, rosters roster.Provider, opts ...Option) (*Issuer, error) {
	if store == nil || rosters == nil {
		return nil, ErrInvalidInput
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg, store: store, rosters: rosters, opts: o}, nil
}

// Config returns the effective configuration.
func (i *Issuer) Config() Config { return i.cfg }

// IssueSession opens a voting window for a division and returns the plain token.
// Several sessions may be active for the same division at once.
func (i *Issuer) IssueSession(ctx context.Context, now time.Time, divisionCode string, ttl time.Duration) (Issued, error) {
	if i == nil || i.store == nil {
		return Issued{}, ErrInvalidInput
	}
	ctx, span := tracer.Start(ctx, "vote.IssueSession")
	defer span.End()

	issued, err := i.issue(ctx, now, divisionCode, ttl)
	if err != nil {
		spanFail(span, err)
		return Issued{}, err
	}
	span.SetAttributes(
		attribute.String("division", issued.Session.DivisionCode),
		attribute.String("session_id", issued.Session.ID),
	)
	i.opts.metrics.sessionIssued()
	return issued, nil
}

func (i *Issuer) issue(ctx context.Context, now time.Time, divisionCode string, ttl time.Duration) (Issued, error) {
	if err := ctx.Err(); err != nil {
		return Issued{}, err
	}

	div, err := roster.NormalizeDivisionCode(divisionCode)
	if err != nil {
		return Issued{}, ErrDivisionNotFound
	}
	if _, err := i.rosters.Roster(ctx, div); err != nil {
		return Issued{}, err
	}

	now = normalizeNow(now)
	tok, err := newOpaqueToken(i.cfg.TokenBytes)
	if err != nil {
		return Issued{}, err
	}
	id, err := i.opts.ids.New(now)
	if err != nil {
		return Issued{}, err
	}

	sess, err := i.store.CreateSession(ctx, SessionRecord{
		ID:           id,
		TokenHash:    i.opts.hasher.Hash(tok),
		DivisionCode: div,
		IssuedAt:     now,
		ExpiresAt:    now.Add(i.cfg.clampTTL(ttl)),
	})
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: tok, ExpiresAt: sess.ExpiresAt, Session: sess}, nil
}

// IsLive resolves a token to its session and reports whether it can still vote.
// It returns ErrInvalidToken, ErrExpiredSession or ErrDuplicateVote otherwise.
// The returned Session is populated whenever the token is known.
func (i *Issuer) IsLive(ctx context.Context, now time.Time, tok string) (Session, error) {
	if i == nil || i.store == nil {
		return Session{}, ErrInvalidInput
	}
	sess, err := i.lookup(ctx, now, tok)
	i.opts.metrics.sessionChecked(err)
	return sess, err
}

func (i *Issuer) lookup(ctx context.Context, now time.Time, tok string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	tok = strings.TrimSpace(tok)
	if !wellFormedToken(tok) {
		return Session{}, ErrInvalidToken
	}

	sess, err := i.store.GetSession(ctx, i.opts.hasher.Hash(tok))
	if err != nil {
		return Session{}, err
	}
	switch sess.StatusAt(normalizeNow(now)) {
	case StatusConsumed:
		return sess, ErrDuplicateVote
	case StatusExpired:
		return sess, ErrExpiredSession
	}
	return sess, nil
}

// VoteURL builds the link handed to students: <base>/vote?div=<code>&t=<token>.
func VoteURL(baseURL, divisionCode, tok string) string {
	q := url.Values{}
	q.Set("div", divisionCode)
	q.Set("t", tok)
	return strings.TrimRight(baseURL, "/") + "/vote?" + q.Encode()
}

func spanFail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, Reason(err))
}
