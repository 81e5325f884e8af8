package vote

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
)

var testT0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store      Store
	issuer     *Issuer
	collector  *Collector
	aggregator *Aggregator
	metrics    *Metrics
	reg        *prometheus.Registry
}

func testRosters(t *testing.T) *roster.StaticProvider {
	t.Helper()
	p, err := roster.NewStaticProvider(map[string][]roster.Candidate{
		"CS-SE-A": {
			{ID: "T1", Name: "Dr. Rao", SubjectLabel: "Compilers"},
			{ID: "T2", Name: "Ms. Iyer", SubjectLabel: "Networks"},
			{ID: "T3", Name: "Mr. Shah", SubjectLabel: "DBMS"},
		},
		"IT-TE-B": {
			{ID: "T9", Name: "Dr. Nair", SubjectLabel: "Cloud"},
		},
	})
	if err != nil {
		t.Fatalf("rosters: %v", err)
	}
	return p
}

func newTestEnv(t *testing.T, store Store) *testEnv {
	t.Helper()
	rosters := testRosters(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	issuer, err := NewIssuer(DefaultConfig(), store, rosters, WithMetrics(m))
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	collector, err := NewCollector(issuer)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	aggregator, err := NewAggregator(store, rosters, WithMetrics(m))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	return &testEnv{store: store, issuer: issuer, collector: collector, aggregator: aggregator, metrics: m, reg: reg}
}

func (e *testEnv) issue(t *testing.T, div string, now time.Time) Issued {
	t.Helper()
	iss, err := e.issuer.IssueSession(context.Background(), now, div, 0)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return iss
}

func (e *testEnv) vote(t *testing.T, iss Issued, now time.Time, ids ...string) Ballot {
	t.Helper()
	b, err := e.collector.SubmitBallot(context.Background(), now, SubmitInput{
		Token:               iss.Token,
		DivisionCode:        iss.Session.DivisionCode,
		OrderedCandidateIDs: ids,
	})
	if err != nil {
		t.Fatalf("submit ballot: %v", err)
	}
	return b
}

// runStoreSuite exercises the voting lifecycle against any Store.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Run("IssueAndIsLive", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		iss := env.issue(t, "cs-se-a", testT0)

		if iss.Session.DivisionCode != "CS-SE-A" {
			t.Fatalf("expected normalized division, got %q", iss.Session.DivisionCode)
		}
		if !iss.ExpiresAt.Equal(testT0.Add(5 * time.Minute)) {
			t.Fatalf("unexpected expiry %v", iss.ExpiresAt)
		}
		if len(iss.Token) != 43 {
			t.Fatalf("expected 43-char token, got %d", len(iss.Token))
		}

		sess, err := env.issuer.IsLive(context.Background(), testT0.Add(time.Minute), iss.Token)
		if err != nil {
			t.Fatalf("is live: %v", err)
		}
		if sess.ID != iss.Session.ID || sess.StatusAt(testT0) != StatusActive {
			t.Fatalf("unexpected session %+v", sess)
		}
	})

	t.Run("UnknownDivision", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		for _, div := range []string{"ME-FE-Z", "garbage", ""} {
			if _, err := env.issuer.IssueSession(context.Background(), testT0, div, 0); !errors.Is(err, ErrDivisionNotFound) {
				t.Fatalf("%q: expected ErrDivisionNotFound, got %v", div, err)
			}
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		iss := env.issue(t, "CS-SE-A", testT0)
		t0 := iss.ExpiresAt

		if _, err := env.issuer.IsLive(context.Background(), t0, iss.Token); err != nil {
			t.Fatalf("expected live at expiry instant, got %v", err)
		}
		if _, err := env.issuer.IsLive(context.Background(), t0.Add(time.Second), iss.Token); !errors.Is(err, ErrExpiredSession) {
			t.Fatalf("expected ErrExpiredSession, got %v", err)
		}
		_, err := env.collector.SubmitBallot(context.Background(), t0.Add(time.Second), SubmitInput{
			Token: iss.Token, DivisionCode: "CS-SE-A", OrderedCandidateIDs: []string{"T1"},
		})
		if !errors.Is(err, ErrExpiredSession) {
			t.Fatalf("expected ErrExpiredSession on submit, got %v", err)
		}
	})

	t.Run("ConsumedTokenReportsDuplicateAfterExpiry", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		iss := env.issue(t, "CS-SE-A", testT0)
		env.vote(t, iss, testT0.Add(time.Second), "T1")

		later := iss.ExpiresAt.Add(time.Hour)
		if _, err := env.issuer.IsLive(context.Background(), later, iss.Token); !errors.Is(err, ErrDuplicateVote) {
			t.Fatalf("expected ErrDuplicateVote, got %v", err)
		}
		_, err := env.collector.SubmitBallot(context.Background(), later, SubmitInput{
			Token: iss.Token, DivisionCode: "CS-SE-A", OrderedCandidateIDs: []string{"T2"},
		})
		if !errors.Is(err, ErrDuplicateVote) {
			t.Fatalf("expected ErrDuplicateVote, got %v", err)
		}
	})

	t.Run("InvalidToken", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		iss := env.issue(t, "CS-SE-A", testT0)

		for _, tok := range []string{"", "short", strings.Repeat("A", 43), "has spaces in it!!", strings.Repeat("x", 500)} {
			if _, err := env.issuer.IsLive(context.Background(), testT0, tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("%q: expected ErrInvalidToken, got %v", tok, err)
			}
		}

		// Right token, wrong division.
		_, err := env.collector.SubmitBallot(context.Background(), testT0, SubmitInput{
			Token: iss.Token, DivisionCode: "IT-TE-B", OrderedCandidateIDs: []string{"T9"},
		})
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for division mismatch, got %v", err)
		}
		if _, err := env.issuer.IsLive(context.Background(), testT0, iss.Token); err != nil {
			t.Fatalf("mismatch must not consume session: %v", err)
		}
	})

	t.Run("MalformedBallotsLeaveSessionUsable", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		iss := env.issue(t, "CS-SE-A", testT0)

		cases := []struct {
			ids    []string
			reason string
		}{
			{nil, ReasonEmpty},
			{[]string{"T1", "T1"}, ReasonDuplicate},
			{[]string{"T1", "T9"}, ReasonUnknownCandidate},
			{[]string{"T1", "T2", "T3", "T4"}, ReasonTooLong},
		}
		for _, tc := range cases {
			_, err := env.collector.SubmitBallot(context.Background(), testT0, SubmitInput{
				Token: iss.Token, DivisionCode: "CS-SE-A", OrderedCandidateIDs: tc.ids,
			})
			if !errors.Is(err, ErrMalformedBallot) {
				t.Fatalf("%v: expected ErrMalformedBallot, got %v", tc.ids, err)
			}
			var mbe *MalformedBallotError
			if !errors.As(err, &mbe) || mbe.Reason != tc.reason {
				t.Fatalf("%v: expected reason %s, got %v", tc.ids, tc.reason, err)
			}
		}

		b := env.vote(t, iss, testT0, " T3 ", "T1")
		if got := strings.Join(b.OrderedCandidateIDs, ","); got != "T3,T1" {
			t.Fatalf("expected trimmed ranking, got %s", got)
		}
	})

	t.Run("WorkedExample", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		a := env.issue(t, "CS-SE-A", testT0)
		b := env.issue(t, "CS-SE-A", testT0)
		env.vote(t, a, testT0.Add(time.Second), "T2", "T1")
		env.vote(t, b, testT0.Add(2*time.Second), "T1", "T3", "T2")

		r, err := env.aggregator.ComputeRankings(context.Background(), "CS-SE-A", RankingOptions{})
		if err != nil {
			t.Fatalf("compute rankings: %v", err)
		}
		if r.BallotCount != 2 {
			t.Fatalf("expected 2 ballots, got %d", r.BallotCount)
		}
		want := []Standing{
			{Rank: 1, CandidateID: "T1", Name: "Dr. Rao", SubjectLabel: "Compilers", Points: 4, Appearances: 2, OnRoster: true},
			{Rank: 2, CandidateID: "T2", Name: "Ms. Iyer", SubjectLabel: "Networks", Points: 3, Appearances: 2, OnRoster: true},
			{Rank: 3, CandidateID: "T3", Name: "Mr. Shah", SubjectLabel: "DBMS", Points: 2, Appearances: 1, OnRoster: true},
		}
		if len(r.Standings) != len(want) {
			t.Fatalf("unexpected standings %+v", r.Standings)
		}
		for i := range want {
			if r.Standings[i] != want[i] {
				t.Fatalf("row %d: got %+v want %+v", i, r.Standings[i], want[i])
			}
		}

		ballots, err := env.store.ListBallots(context.Background(), "CS-SE-A")
		if err != nil {
			t.Fatalf("list ballots: %v", err)
		}
		if len(ballots) != 2 || ballots[0].OrderedCandidateIDs[0] != "T2" {
			t.Fatalf("expected ballots in submission order, got %+v", ballots)
		}
	})

	t.Run("EmptyDivisionAndIncludeAll", func(t *testing.T) {
		env := newTestEnv(t, open(t))

		r, err := env.aggregator.ComputeRankings(context.Background(), "IT-TE-B", RankingOptions{})
		if err != nil {
			t.Fatalf("compute rankings: %v", err)
		}
		if r.BallotCount != 0 || len(r.Standings) != 0 {
			t.Fatalf("expected empty rankings, got %+v", r)
		}

		r, err = env.aggregator.ComputeRankings(context.Background(), "it-te-b", RankingOptions{IncludeAll: true})
		if err != nil {
			t.Fatalf("compute rankings: %v", err)
		}
		if len(r.Standings) != 1 || r.Standings[0].Points != 0 || r.Standings[0].Name != "Dr. Nair" {
			t.Fatalf("expected zero-point roster row, got %+v", r.Standings)
		}

		if _, err := env.aggregator.ComputeRankings(context.Background(), "XX-YY-ZZ", RankingOptions{}); !errors.Is(err, ErrDivisionNotFound) {
			t.Fatalf("expected ErrDivisionNotFound, got %v", err)
		}
	})

	t.Run("ConcurrentSubmitSameToken", func(t *testing.T) {
		env := newTestEnv(t, open(t))
		iss := env.issue(t, "CS-SE-A", testT0)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids := []string{"T1", "T2"}
				if i%2 == 1 {
					ids = []string{"T3"}
				}
				_, err := env.collector.SubmitBallot(context.Background(), testT0.Add(time.Second), SubmitInput{
					Token: iss.Token, DivisionCode: "CS-SE-A", OrderedCandidateIDs: ids,
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		success := 0
		for err := range errs {
			if err == nil {
				success++
				continue
			}
			if !errors.Is(err, ErrDuplicateVote) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if success != 1 {
			t.Fatalf("expected exactly 1 success, got %d", success)
		}

		ballots, err := env.store.ListBallots(context.Background(), "CS-SE-A")
		if err != nil {
			t.Fatalf("list ballots: %v", err)
		}
		if len(ballots) != 1 {
			t.Fatalf("expected 1 stored ballot, got %d", len(ballots))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	defer goleak.VerifyNone(t)
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		st, err := OpenSQLite(t.TempDir() + "/votes.db")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestOpenSQLite_RejectsMemoryPaths(t *testing.T) {
	t.Parallel()

	for _, path := range []string{":memory:", "file::memory:?cache=shared", "file:votes?mode=memory"} {
		st, err := OpenSQLite(path)
		if !errors.Is(err, ErrSQLiteMemoryPath) {
			if st != nil {
				_ = st.Close()
			}
			t.Fatalf("%s: expected ErrSQLiteMemoryPath, got %v", path, err)
		}
	}
}

func TestSQLiteStore_WrapsDriverErrors(t *testing.T) {
	t.Parallel()

	st, err := OpenSQLite(t.TempDir() + "/votes.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	ctx := context.Background()

	_, err = st.CreateSession(ctx, SessionRecord{
		ID: "s1", TokenHash: "h1", DivisionCode: "CS-SE-A", IssuedAt: testT0, ExpiresAt: testT0.Add(time.Minute),
	})
	if err == nil || !strings.HasPrefix(err.Error(), "create session: ") {
		t.Fatalf("create session: unexpected error %v", err)
	}
	_, err = st.CommitBallot(ctx, BallotRecord{
		ID: "b1", TokenHash: "h1", DivisionCode: "CS-SE-A", OrderedCandidateIDs: []string{"T1"}, SubmittedAt: testT0,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "commit ballot: ") {
		t.Fatalf("commit ballot: unexpected error %v", err)
	}
	if _, err := st.ListBallots(ctx, "CS-SE-A"); err == nil || !strings.HasPrefix(err.Error(), "list ballots: ") {
		t.Fatalf("list ballots: unexpected error %v", err)
	}
}

func TestMetrics_CountOutcomes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, NewMemoryStore())
	iss := env.issue(t, "CS-SE-A", testT0)
	env.vote(t, iss, testT0, "T1")
	_, _ = env.collector.SubmitBallot(context.Background(), testT0, SubmitInput{
		Token: iss.Token, DivisionCode: "CS-SE-A", OrderedCandidateIDs: []string{"T1"},
	})
	if _, err := env.aggregator.ComputeRankings(context.Background(), "CS-SE-A", RankingOptions{}); err != nil {
		t.Fatalf("compute rankings: %v", err)
	}

	if got := testutil.ToFloat64(env.metrics.sessionsIssued); got != 1 {
		t.Fatalf("sessions issued=%v", got)
	}
	if got := testutil.ToFloat64(env.metrics.ballotsAccepted); got != 1 {
		t.Fatalf("ballots accepted=%v", got)
	}
	if got := testutil.ToFloat64(env.metrics.ballotsRejected.WithLabelValues("duplicate_vote")); got != 1 {
		t.Fatalf("duplicate rejections=%v", got)
	}
	if got := testutil.ToFloat64(env.metrics.rankings); got != 1 {
		t.Fatalf("rankings computed=%v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.sessionIssued()
	m.sessionChecked(ErrInvalidToken)
	m.ballotDone(nil, time.Millisecond)
	m.rankingComputed()
}

func TestIssueSession_TTLClamp(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, NewMemoryStore())
	iss, err := env.issuer.IssueSession(context.Background(), testT0, "CS-SE-A", 48*time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !iss.ExpiresAt.Equal(testT0.Add(time.Hour)) {
		t.Fatalf("expected ttl capped at 1h, got %v", iss.ExpiresAt.Sub(testT0))
	}
}

func TestVoteURL(t *testing.T) {
	t.Parallel()

	got := VoteURL("https://rank.example.edu/", "CS-SE-A", "abc_-9")
	want := "https://rank.example.edu/vote?div=CS-SE-A&t=abc_-9"
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestReason(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"ok":                 nil,
		"division_not_found": ErrDivisionNotFound,
		"invalid_token":      ErrInvalidToken,
		"session_expired":    ErrExpiredSession,
		"duplicate_vote":     ErrDuplicateVote,
		"malformed_ballot":   &MalformedBallotError{Reason: ReasonEmpty},
		"error":              errors.New("boom"),
	}
	for want, err := range cases {
		if got := Reason(err); got != want {
			t.Fatalf("Reason(%v)=%s want %s", err, got, want)
		}
	}
}
