package vote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the voting counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsIssued  prometheus.Counter
	sessionChecks   *prometheus.CounterVec
	ballotsAccepted prometheus.Counter
	ballotsRejected *prometheus.CounterVec
	submitDuration  prometheus.Histogram
	rankings        prometheus.Counter
}

// NewMetrics registers the voting metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "profrank_sessions_issued_total",
			Help: "Voting sessions issued",
		}),
		sessionChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profrank_session_checks_total",
			Help: "Session liveness checks by result",
		}, []string{"result"}),
		ballotsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "profrank_ballots_accepted_total",
			Help: "Ballots committed",
		}),
		ballotsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profrank_ballots_rejected_total",
			Help: "Ballots rejected by reason",
		}, []string{"reason"}),
		submitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "profrank_ballot_submit_duration_seconds",
			Help:    "Time spent validating and committing a ballot",
			Buckets: prometheus.DefBuckets,
		}),
		rankings: f.NewCounter(prometheus.CounterOpts{
			Name: "profrank_rankings_computed_total",
			Help: "Ranking computations",
		}),
	}
}

func (m *Metrics) sessionIssued() {
	if m == nil {
		return
	}
	m.sessionsIssued.Inc()
}

func (m *Metrics) sessionChecked(err error) {
	if m == nil {
		return
	}
	m.sessionChecks.WithLabelValues(Reason(err)).Inc()
}

func (m *Metrics) ballotDone(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submitDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.ballotsAccepted.Inc()
		return
	}
	m.ballotsRejected.WithLabelValues(Reason(err)).Inc()
}

func (m *Metrics) rankingComputed() {
	if m == nil {
		return
	}
	m.rankings.Inc()
}
