// Package borda scores ranked ballots with a length-normalized Borda count.
//
// A ballot ranking k candidates awards k points to its first choice, k-1 to
// the second and 1 to the last. Points scale with the ballot's own length,
// not the roster size, so a partial ranking is scored on the candidates the
// voter actually ordered and is not penalized for leaving the rest out.
// Unranked candidates receive nothing from that ballot.
package borda

import "sort"

// Score is one candidate's tally.
type Score struct {
	CandidateID string
	Points      int
	Appearances int

	// Rank is 1-based. Tied candidates still get distinct, consecutive ranks.
	Rank int
}

// BallotPoints returns the total points a ballot of length k distributes.
func BallotPoints(k int) int {
	if k <= 0 {
		return 0
	}
	return k * (k + 1) / 2
}

// Compute tallies ballots and returns the standings.
//
// Order: points desc, then appearances desc, then candidate id asc.
// When includeAll is set, roster candidates with no appearances are listed
// with zero points; otherwise only candidates that appear on a ballot are.
// Ballots are assumed valid (no repeats).
func Compute(ballots [][]string, roster []string, includeAll bool) []Score {
	byID := make(map[string]*Score)
	get := func(id string) *Score {
		s, ok := byID[id]
		if !ok {
			s = &Score{CandidateID: id}
			byID[id] = s
		}
		return s
	}

	for _, b := range ballots {
		k := len(b)
		for pos, id := range b {
			s := get(id)
			s.Points += k - pos
			s.Appearances++
		}
	}
	if includeAll {
		for _, id := range roster {
			get(id)
		}
	}

	out := make([]Score, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Appearances != b.Appearances {
			return a.Appearances > b.Appearances
		}
		return a.CandidateID < b.CandidateID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
