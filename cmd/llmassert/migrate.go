package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/llmassert/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the verdicts table in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Verdicts.Database.Host == "" {
				return errors.New("verdicts.database.host is not configured")
			}

			db, err := openDatabase(cfg.Verdicts.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s\n", cfg.Verdicts.Database.Database)
			return nil
		},
	}
}
