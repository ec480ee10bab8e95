package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver string
	DSN    string

	// Retention is the number of snapshots kept per provider. Zero means
	// DefaultSnapshotRetention.
	Retention int
}

// Open constructs a Storage based on the given configuration.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Storage, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}
	switch drv {
	case "memory":
		logger.Info("storage: using in-memory backend", "retention", normalizeRetention(cfg.Retention))
		return NewMemoryWithRetention(cfg.Retention), nil

	case "sqlite", "postgres":
		logger.Info("storage: using gorm backend", "driver", drv)
		st, err := NewGormStorage(drv, cfg.DSN, cfg.Retention)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}
}
