package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/app"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the vote and roster schema to PROFRANK_DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.Backend != app.BackendPostgres {
				return errors.New("migrate needs PROFRANK_DATABASE_URL (sqlite applies its schema on open)")
			}
			if err := rt.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema %q is up to date\n", cfg.DBSchema)
			return nil
		},
	}
}
