package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/denkiyoho/internal/config"
	"github.com/bher20/denkiyoho/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the snapshot database schema",
	}
	for _, sub := range []struct {
		use   string
		short string
		run   func(cfg *config.Config, cmd *cobra.Command) error
	}{
		{"up", "Apply all pending migrations", func(cfg *config.Config, cmd *cobra.Command) error {
			return migrate.Up(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		}},
		{"down", "Roll back the latest migration", func(cfg *config.Config, cmd *cobra.Command) error {
			return migrate.Down(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		}},
		{"status", "Show migration status", func(cfg *config.Config, cmd *cobra.Command) error {
			return migrate.Status(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		}},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if cfg.DBDriver == "memory" {
					return fmt.Errorf("migrations need DENKIYOHO_DB_DRIVER=sqlite or postgres")
				}
				return sub.run(cfg, cmd)
			},
		})
	}
	return cmd
}
