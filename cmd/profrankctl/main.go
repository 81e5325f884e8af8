// Command profrankctl is the operator CLI: schema migration, session issuance,
// roster seeding, rankings and admin key hashing.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/app"
)

const programName = "profrankctl"

var globalFlags = struct {
	debug   bool
	envFile string
}{}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Operate a ProfRank deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	root.PersistentFlags().StringVar(&globalFlags.envFile, "env-file", ".env", "dotenv file to load before reading PROFRANK_* variables")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if globalFlags.envFile == "" {
			return nil
		}
		if err := godotenv.Load(globalFlags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", globalFlags.envFile, err)
		}
		return nil
	}

	root.AddCommand(
		migrateCommand(),
		issueCommand(),
		rankingsCommand(),
		rosterCommand(),
		hashAdminKeyCommand(),
	)
	return root
}

// commonRun loads config and a stderr logger so stdout stays machine-readable.
func commonRun() (app.Config, *slog.Logger) {
	cfg := app.LoadConfig()
	level := cfg.LogLevel
	if globalFlags.debug {
		level = "debug"
	}
	return cfg, app.NewLoggerTo(os.Stderr, level, "pretty")
}

// openRuntime is commonRun plus the wired services.
func openRuntime(ctx context.Context) (app.Config, *app.Runtime, error) {
	cfg, log := commonRun()
	rt, err := app.OpenRuntime(ctx, cfg, log)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, rt, nil
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
