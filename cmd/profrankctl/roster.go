package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/app"
	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
)

func rosterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Inspect or seed division rosters",
	}
	cmd.AddCommand(rosterShowCommand(), rosterImportCommand())
	return cmd
}

func rosterShowCommand() *cobra.Command {
	var division string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the candidates of a division",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			cs, err := rt.Rosters.Roster(cmd.Context(), division)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSUBJECT")
			for _, c := range cs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.SubjectLabel)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&division, "div", "", "division code, e.g. CS-SE-A")
	_ = cmd.MarkFlagRequired("div")
	return cmd
}

func rosterImportCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a YAML roster file into Postgres, replacing each listed division",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := roster.LoadFile(file)
			if err != nil {
				return err
			}

			cfg, rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.Backend != app.BackendPostgres {
				return errors.New("roster import needs PROFRANK_DATABASE_URL")
			}
			dst, err := roster.NewPostgresProvider(rt.Pool, roster.WithSchema(cfg.DBSchema))
			if err != nil {
				return err
			}

			codes := src.Divisions()
			sort.Strings(codes)
			for _, code := range codes {
				cs, err := src.Roster(cmd.Context(), code)
				if err != nil {
					return err
				}
				if err := dst.UpsertDivision(cmd.Context(), code, cs); err != nil {
					return fmt.Errorf("import %s: %w", code, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d candidate(s)\n", code, len(cs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML roster file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
