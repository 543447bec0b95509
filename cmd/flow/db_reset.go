package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freelanceflow/flow/internal/config"
)

func newDBResetCmd(cfg *config.Config) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "db-reset",
		Short: "Delete the local database file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseDriver != "sqlite3" {
				return fmt.Errorf("db-reset only works with the sqlite3 driver")
			}
			if !force {
				return fmt.Errorf("refusing to delete %s without --force", cfg.DatabaseURL)
			}
			path, _, _ := strings.Cut(cfg.DatabaseURL, "?")
			for _, suffix := range []string{"", "-wal", "-shm"} {
				if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to remove %s: %w", path+suffix, err)
				}
			}
			fmt.Printf("Removed %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Actually delete the database")
	return cmd
}
