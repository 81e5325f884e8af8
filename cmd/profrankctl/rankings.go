package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/vote"
)

type standingJSON struct {
	Rank        int    `json:"rank"`
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Subject     string `json:"subject_label"`
	Points      int    `json:"points"`
	Appearances int    `json:"appearances"`
	OnRoster    bool   `json:"on_roster"`
}

type rankingsJSON struct {
	DivisionCode string         `json:"division_code"`
	BallotCount  int            `json:"ballot_count"`
	Standings    []standingJSON `json:"standings"`
}

func rankingsCommand() *cobra.Command {
	var (
		division   string
		includeAll bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Print the Borda standings for a division",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.Aggregator.ComputeRankings(cmd.Context(), division, vote.RankingOptions{IncludeAll: includeAll})
			if err != nil {
				return err
			}
			if asJSON {
				return writeRankingsJSON(cmd.OutOrStdout(), res)
			}
			return writeRankingsTable(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&division, "div", "", "division code, e.g. CS-SE-A")
	cmd.Flags().BoolVar(&includeAll, "all", false, "include roster candidates nobody ranked")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("div")
	return cmd
}

func writeRankingsJSON(w io.Writer, res vote.Rankings) error {
	out := rankingsJSON{
		DivisionCode: res.DivisionCode,
		BallotCount:  res.BallotCount,
		Standings:    make([]standingJSON, 0, len(res.Standings)),
	}
	for _, s := range res.Standings {
		out.Standings = append(out.Standings, standingJSON{
			Rank:        s.Rank,
			CandidateID: s.CandidateID,
			Name:        s.Name,
			Subject:     s.SubjectLabel,
			Points:      s.Points,
			Appearances: s.Appearances,
			OnRoster:    s.OnRoster,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeRankingsTable(w io.Writer, res vote.Rankings) error {
	fmt.Fprintf(w, "%s: %d ballot(s)\n\n", res.DivisionCode, res.BallotCount)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEACHER\tSUBJECT\tPOINTS\tVOTERS")
	for _, s := range res.Standings {
		name := s.Name
		if name == "" {
			name = s.CandidateID
		}
		if !s.OnRoster {
			name += " (off roster)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", s.Rank, name, s.SubjectLabel, s.Points, s.Appearances)
	}
	return tw.Flush()
}
