package main

import (
	"blogapi/internal/config"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	flags := newConfigFlags()
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if cfg.DB.Driver == config.DriverBadger {
				logger.Info("badger store has no schema, nothing to migrate")
				return nil
			}

			ctx := cmd.Context()

			// opening a SQL store runs its migrations
			store, err := openPostStore(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("database migrated", "driver", cfg.DB.Driver)
			return store.Close()
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
