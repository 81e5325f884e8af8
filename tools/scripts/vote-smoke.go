// Package main provides a CI-friendly smoke test for a running ProfRank server.
//
// It validates:
//   - admin session issuance returns a vote link
//   - the roster and live-session endpoints accept the link
//   - a full ballot is accepted once and the token is then spent
//   - the ballot shows up in the division rankings
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type smokeClient struct {
	base     *url.URL
	adminKey string
	http     *http.Client
	verbose  bool
}

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "server base URL")
		adminKey = flag.String("admin-key", os.Getenv("PROFRANK_ADMIN_KEY"), "admin bearer key (defaults to PROFRANK_ADMIN_KEY)")
		div      = flag.String("div", "CS-SE-A", "division code with a configured roster")
		timeout  = flag.Duration("timeout", 7*time.Second, "per-request timeout")
		verbose  = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	base, err := validateBaseURL(*baseURL)
	if err != nil {
		fatalf("invalid -url: %v", err)
	}
	if strings.TrimSpace(*adminKey) == "" {
		fatalf("missing -admin-key (or PROFRANK_ADMIN_KEY)")
	}

	c := &smokeClient{base: base, adminKey: *adminKey, http: &http.Client{Timeout: *timeout}, verbose: *verbose}
	ctx := context.Background()

	before := c.mustRankings(ctx, *div)

	var issued struct {
		Token        string `json:"token"`
		DivisionCode string `json:"division_code"`
		VoteURL      string `json:"vote_url"`
	}
	c.mustDo(ctx, http.MethodPost, "/admin/sessions", true, map[string]any{"division_code": *div}, http.StatusCreated, &issued)
	if issued.Token == "" || !strings.Contains(issued.VoteURL, "/vote?") {
		fatalf("issue: unexpected response %+v", issued)
	}
	c.logf("issued %s", issued.VoteURL)

	var live struct {
		SecondsLeft int64 `json:"seconds_left"`
	}
	c.mustDo(ctx, http.MethodGet, "/sessions/live?t="+url.QueryEscape(issued.Token), false, nil, http.StatusOK, &live)
	if live.SecondsLeft <= 0 {
		fatalf("live: expected remaining time, got %d", live.SecondsLeft)
	}

	var ro struct {
		Candidates []struct {
			ID string `json:"id"`
		} `json:"candidates"`
	}
	c.mustDo(ctx, http.MethodGet, "/roster?div="+url.QueryEscape(issued.DivisionCode), false, nil, http.StatusOK, &ro)
	if len(ro.Candidates) == 0 {
		fatalf("roster: division %s has no candidates", issued.DivisionCode)
	}
	ids := make([]string, 0, len(ro.Candidates))
	for _, cand := range ro.Candidates {
		ids = append(ids, cand.ID)
	}

	ballot := map[string]any{
		"token":                 issued.Token,
		"division_code":         issued.DivisionCode,
		"ordered_candidate_ids": ids,
	}
	c.mustDo(ctx, http.MethodPost, "/votes", false, ballot, http.StatusCreated, nil)

	code := c.mustFail(ctx, http.MethodPost, "/votes", ballot, http.StatusConflict)
	if code != "already_voted" {
		fatalf("resubmit: expected already_voted, got %q", code)
	}

	after := c.mustRankings(ctx, *div)
	if after != before+1 {
		fatalf("rankings: ballot count %d -> %d, expected +1", before, after)
	}

	fmt.Printf("OK: div=%s ballots=%d candidates=%d\n", issued.DivisionCode, after, len(ids))
}

func validateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func (c *smokeClient) mustRankings(ctx context.Context, div string) int {
	var res struct {
		BallotCount int `json:"ballot_count"`
	}
	c.mustDo(ctx, http.MethodGet, "/admin/rankings?div="+url.QueryEscape(div), true, nil, http.StatusOK, &res)
	return res.BallotCount
}

func (c *smokeClient) mustDo(ctx context.Context, method, path string, admin bool, body any, wantStatus int, out any) {
	status, raw := c.do(ctx, method, path, admin, body)
	if status != wantStatus {
		fatalf("%s %s: status %d (want %d): %s", method, path, status, wantStatus, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		fatalf("%s %s: decode: %v", method, path, err)
	}
}

// mustFail expects an error response and returns its code.
func (c *smokeClient) mustFail(ctx context.Context, method, path string, body any, wantStatus int) string {
	status, raw := c.do(ctx, method, path, false, body)
	if status != wantStatus {
		fatalf("%s %s: status %d (want %d): %s", method, path, status, wantStatus, strings.TrimSpace(string(raw)))
	}
	var e apiErrorBody
	if err := json.Unmarshal(raw, &e); err != nil {
		fatalf("%s %s: decode error body: %v", method, path, err)
	}
	return e.Error.Code
}

func (c *smokeClient) do(ctx context.Context, method, path string, admin bool, body any) (int, []byte) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fatalf("encode body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rdr)
	if err != nil {
		fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.adminKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		fatalf("%s %s: read body: %v", method, path, err)
	}
	c.logf("%s %s -> %d", method, path, res.StatusCode)
	return res.StatusCode, raw
}

func (c *smokeClient) logf(format string, args ...any) {
	if c.verbose {
		fmt.Printf(format+"\n", args...)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
