package voteapi

import "time"

type issueSessionRequest struct {
	DivisionCode string `json:"division_code"`
	TTLSeconds   int64  `json:"ttl_seconds"`
}

type issueSessionResponse struct {
	SessionID    string    `json:"session_id"`
	Token        string    `json:"token"`
	DivisionCode string    `json:"division_code"`
	ExpiresAt    time.Time `json:"expires_at"`
	VoteURL      string    `json:"vote_url"`
}

type liveSessionResponse struct {
	SessionID    string    `json:"session_id"`
	DivisionCode string    `json:"division_code"`
	ExpiresAt    time.Time `json:"expires_at"`
	SecondsLeft  int64     `json:"seconds_left"`
}

type candidateResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SubjectLabel string `json:"subject_label"`
}

type rosterResponse struct {
	DivisionCode string              `json:"division_code"`
	Title        string              `json:"title"`
	Candidates   []candidateResponse `json:"candidates"`
}

type submitBallotRequest struct {
	Token               string   `json:"token"`
	DivisionCode        string   `json:"division_code"`
	OrderedCandidateIDs []string `json:"ordered_candidate_ids"`
}

type submitBallotResponse struct {
	BallotID    string    `json:"ballot_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type standingResponse struct {
	Rank         int    `json:"rank"`
	CandidateID  string `json:"candidate_id"`
	Name         string `json:"name"`
	SubjectLabel string `json:"subject_label"`
	Points       int    `json:"points"`
	Appearances  int    `json:"appearances"`
}

type rankingsResponse struct {
	DivisionCode string             `json:"division_code"`
	BallotCount  int                `json:"ballot_count"`
	Standings    []standingResponse `json:"standings"`
}
