package voteapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
	"github.com/MH469Arya/ProfRankSystem/cmd/internal/vote"
	"github.com/MH469Arya/ProfRankSystem/cmd/security/adminkey"
)

// Handler wires HTTP voting endpoints to the vote services.
type Handler struct {
	log *slog.Logger
	cfg Config

	issuer     *vote.Issuer
	collector  *vote.Collector
	aggregator *vote.Aggregator
	rosters    roster.Provider

	admin *adminkey.Verifier

	// Submissions, liveness checks and admin requests are throttled separately.
	limiter      *ipLimiter
	liveLimiter  *ipLimiter
	adminLimiter *ipLimiter

	now func() time.Time
}

// Services groups the vote components the handler serves.
type Services struct {
	Issuer     *vote.Issuer
	Collector  *vote.Collector
	Aggregator *vote.Aggregator
	Rosters    roster.Provider
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithAdminVerifier enables the admin routes. Without it they answer 503.
func WithAdminVerifier(v *adminkey.Verifier) HandlerOption {
	return func(h *Handler) {
		if h == nil || v == nil {
			return
		}
		h.admin = v
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs a vote Handler.
func NewHandler(log *slog.Logger, cfg Config, svc Services, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc.Issuer == nil || svc.Collector == nil || svc.Aggregator == nil || svc.Rosters == nil {
		return nil, errors.New("voteapi: missing vote services")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}

	h := &Handler{
		log:          log,
		cfg:          cfg,
		issuer:       svc.Issuer,
		collector:    svc.Collector,
		aggregator:   svc.Aggregator,
		rosters:      svc.Rosters,
		limiter:      newIPLimiter(cfg.VoteRateEvents, cfg.VoteRateWindow),
		liveLimiter:  newIPLimiter(cfg.VoteRateEvents, cfg.VoteRateWindow),
		adminLimiter: newIPLimiter(cfg.AdminRateEvents, cfg.AdminRateWindow),
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires vote routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/roster", h.handleRoster)
	mux.HandleFunc("/sessions/live", h.handleLive)
	mux.HandleFunc("/votes", h.handleSubmit)
	mux.HandleFunc("/admin/sessions", h.handleIssue)
	mux.HandleFunc("/admin/rankings", h.handleRankings)
}

// ---- public ----

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	div, ok := divisionFromQuery(r)
	if !ok {
		writeVoteError(w, vote.ErrDivisionNotFound)
		return
	}
	cs, err := h.rosters.Roster(r.Context(), div)
	if err != nil {
		h.writeServiceError(w, "vote.roster.fail", err)
		return
	}

	d, _ := roster.ParseDivisionCode(div)
	resp := rosterResponse{DivisionCode: d.Code(), Title: d.Title(), Candidates: make([]candidateResponse, 0, len(cs))}
	for _, c := range cs {
		resp.Candidates = append(resp.Candidates, candidateResponse{ID: c.ID, Name: c.Name, SubjectLabel: c.SubjectLabel})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	now := h.now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	if ok, retryAfter := h.liveLimiter.Allow(ip, now); !ok {
		h.log.Warn("vote.live.rate_limited", "ip", ip.String())
		writeRateLimited(w, retryAfter)
		return
	}

	sess, err := h.issuer.IsLive(r.Context(), now, r.URL.Query().Get("t"))
	if err != nil {
		h.writeServiceError(w, "vote.live.fail", err)
		return
	}
	writeJSON(w, http.StatusOK, liveSessionResponse{
		SessionID:    sess.ID,
		DivisionCode: sess.DivisionCode,
		ExpiresAt:    sess.ExpiresAt,
		SecondsLeft:  int64(sess.Remaining(now) / time.Second),
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	now := h.now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	if ok, retryAfter := h.limiter.Allow(ip, now); !ok {
		h.log.Warn("vote.submit.rate_limited", "ip", ip.String())
		writeRateLimited(w, retryAfter)
		return
	}

	var req submitBallotRequest
	if err := readBody(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	b, err := h.collector.SubmitBallot(r.Context(), now, vote.SubmitInput{
		Token:               req.Token,
		DivisionCode:        req.DivisionCode,
		OrderedCandidateIDs: req.OrderedCandidateIDs,
	})
	if err != nil {
		h.writeServiceError(w, "vote.submit.fail", err)
		return
	}

	h.log.Info("vote.submit.ok", "division", b.DivisionCode, "ballot_id", b.ID, "ranked", len(b.OrderedCandidateIDs))
	writeJSON(w, http.StatusCreated, submitBallotResponse{BallotID: b.ID, SubmittedAt: b.SubmittedAt})
}

// ---- admin ----

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	var req issueSessionRequest
	if err := readBody(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.TTLSeconds < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "ttl_seconds must not be negative")
		return
	}

	issued, err := h.issuer.IssueSession(r.Context(), h.now().UTC(), req.DivisionCode, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.writeServiceError(w, "vote.issue.fail", err)
		return
	}

	div := issued.Session.DivisionCode
	h.log.Info("vote.issue.ok", "division", div, "session_id", issued.Session.ID, "expires_at", issued.ExpiresAt)
	writeJSON(w, http.StatusCreated, issueSessionResponse{
		SessionID:    issued.Session.ID,
		Token:        issued.Token,
		DivisionCode: div,
		ExpiresAt:    issued.ExpiresAt,
		VoteURL:      vote.VoteURL(h.cfg.PublicBaseURL, div, issued.Token),
	})
}

func (h *Handler) handleRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	div, ok := divisionFromQuery(r)
	if !ok {
		writeVoteError(w, vote.ErrDivisionNotFound)
		return
	}
	includeAll, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	res, err := h.aggregator.ComputeRankings(r.Context(), div, vote.RankingOptions{IncludeAll: includeAll})
	if err != nil {
		h.writeServiceError(w, "vote.rankings.fail", err)
		return
	}

	resp := rankingsResponse{
		DivisionCode: res.DivisionCode,
		BallotCount:  res.BallotCount,
		Standings:    make([]standingResponse, 0, len(res.Standings)),
	}
	for _, s := range res.Standings {
		resp.Standings = append(resp.Standings, standingResponse{
			Rank:         s.Rank,
			CandidateID:  s.CandidateID,
			Name:         s.Name,
			SubjectLabel: s.SubjectLabel,
			Points:       s.Points,
			Appearances:  s.Appearances,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if h.admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin_disabled", "admin key not configured")
		return false
	}
	key := bearerToken(r)
	if key == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	ip := clientIP(r, h.cfg.TrustProxy)
	if ok, retryAfter := h.adminLimiter.Allow(ip, h.now().UTC()); !ok {
		h.log.Warn("vote.admin.rate_limited", "ip", ip.String(), "path", r.URL.Path)
		writeRateLimited(w, retryAfter)
		return false
	}
	if !h.admin.Check(key) {
		h.log.Warn("vote.admin.denied", "ip", ip.String(), "path", r.URL.Path)
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid admin key")
		return false
	}
	return true
}

// ---- errors ----

// writeServiceError maps vote errors to responses and logs anything unexpected.
func (h *Handler) writeServiceError(w http.ResponseWriter, event string, err error) {
	if writeVoteError(w, err) {
		return
	}
	h.log.Error(event, "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}

func writeVoteError(w http.ResponseWriter, err error) bool {
	var mbe *vote.MalformedBallotError
	switch {
	case errors.Is(err, vote.ErrDivisionNotFound):
		writeError(w, http.StatusNotFound, "division_not_found", "division not found")
	case errors.Is(err, vote.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "link invalid")
	case errors.Is(err, vote.ErrExpiredSession):
		writeError(w, http.StatusGone, "session_expired", "voting session has expired")
	case errors.Is(err, vote.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "already_voted", "a vote was already recorded for this link")
	case errors.As(err, &mbe):
		writeError(w, http.StatusUnprocessableEntity, "malformed_ballot", mbe.Error())
	case errors.Is(err, vote.ErrMalformedBallot):
		writeError(w, http.StatusUnprocessableEntity, "malformed_ballot", "malformed ballot")
	default:
		return false
	}
	return true
}

// ---- request helpers ----

// divisionFromQuery accepts ?div=CS-SE-A or ?dept=CS&year=SE&section=A.
func divisionFromQuery(r *http.Request) (string, bool) {
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("div")); raw != "" {
		code, err := roster.NormalizeDivisionCode(raw)
		return code, err == nil
	}
	code, err := roster.ComposeDivisionCode(q.Get("dept"), q.Get("year"), q.Get("section"))
	return code, err == nil
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
