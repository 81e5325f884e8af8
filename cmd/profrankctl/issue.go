package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/app"
	"github.com/MH469Arya/ProfRankSystem/cmd/internal/vote"
)

func issueCommand() *cobra.Command {
	var (
		division string
		ttl      time.Duration
		baseURL  string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a voting session for a division and print its link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			// A memory store dies with this process, so the link would never work.
			if rt.Backend == app.BackendMemory {
				return errors.New("issue needs persistent storage: set PROFRANK_DATABASE_URL or PROFRANK_SQLITE_PATH")
			}

			iss, err := rt.Issuer.IssueSession(cmd.Context(), time.Now(), division, ttl)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = app.EnvString("PROFRANK_PUBLIC_BASE_URL", "http://localhost:8080")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "division:   %s\n", iss.Session.DivisionCode)
			fmt.Fprintf(out, "expires_at: %s\n", iss.ExpiresAt.Format(time.RFC3339))
			fmt.Fprintf(out, "url:        %s\n", vote.VoteURL(baseURL, iss.Session.DivisionCode, iss.Token))
			return nil
		},
	}
	cmd.Flags().StringVar(&division, "div", "", "division code, e.g. CS-SE-A")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "voting window (0 uses PROFRANK_SESSION_TTL)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL for the voting page")
	_ = cmd.MarkFlagRequired("div")
	return cmd
}
