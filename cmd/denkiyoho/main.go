package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bher20/denkiyoho/internal/config"
	"github.com/bher20/denkiyoho/internal/logging"
	"github.com/bher20/denkiyoho/internal/migrate"
	"github.com/bher20/denkiyoho/internal/storage"
	"github.com/bher20/denkiyoho/internal/usage"
	"github.com/bher20/denkiyoho/pkg/demand"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "denkiyoho",
		Short:        "Read Japanese electric utilities' demand and supply feeds",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newProvidersCmd(),
		newShowCmd(),
		newRawCmd(),
		newMigrateCmd(),
	)
	return root
}

// app bundles what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *usage.Service
	store  storage.Storage
}

// newApp loads configuration and builds the usage service. Storage is only
// opened when withStorage is set, after any automatic migration.
func newApp(ctx context.Context, withStorage bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	var overrides []config.FormatEntry
	if cfg.FormatsFile != "" {
		overrides, err = config.LoadFormats(cfg.FormatsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded feed formats", "path", cfg.FormatsFile, "count", len(overrides))
	}
	catalog := usage.NewCatalog(overrides)

	client := usage.NewHTTPClient(cfg.FetchTimeout, cfg.InsecureTLS)
	svcCfg := usage.Config{
		Catalog:        catalog,
		Fetcher:        demand.NewHTTPFetcher(client, cfg.UserAgent, logger),
		SnapshotMaxAge: cfg.SnapshotMaxAge,
		Logger:         logger,
	}

	a := &app{cfg: cfg, logger: logger}
	if !withStorage {
		a.svc = usage.NewService(svcCfg)
		return a, nil
	}

	if cfg.AutoMigrate && cfg.DBDriver != "memory" {
		if err := migrate.Up(ctx, cfg.DBDriver, cfg.DBDSN); err != nil {
			logger.Error("auto-migration failed", "error", err)
		}
	}
	st, err := storage.Open(ctx, storage.Config{
		Driver:    cfg.DBDriver,
		DSN:       cfg.DBDSN,
		Retention: cfg.SnapshotRetention,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.store = st
	a.svc = usage.NewServiceWithStorage(svcCfg, st)
	if err := a.svc.SyncProviders(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("storage close error", "error", err)
	}
}
