package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MH469Arya/ProfRankSystem/cmd/security/adminkey"
)

func hashAdminKeyCommand() *cobra.Command {
	var generate bool
	cmd := &cobra.Command{
		Use:   "hash-admin-key",
		Short: "Hash an admin key for PROFRANK_ADMIN_KEY_HASH (reads the key from stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := adminkey.FromEnv()
			if err != nil {
				return err
			}

			var key string
			if generate {
				if key, err = adminkey.Generate(); err != nil {
					return err
				}
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read key from stdin: %w", err)
				}
				key = strings.TrimSpace(line)
			}
			if err := cfg.Validate(key); err != nil {
				return err
			}

			hash, err := cfg.Hash(key)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if generate {
				fmt.Fprintf(out, "key:  %s\n", key)
			}
			fmt.Fprintf(out, "PROFRANK_ADMIN_KEY_HASH=%s\n", hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&generate, "generate", false, "generate a random key instead of reading one")
	return cmd
}
