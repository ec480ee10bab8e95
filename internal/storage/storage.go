package storage

import "context"

// Storage abstracts persistence for provider descriptors and usage snapshots.
type Storage interface {
	// Providers
	ListProviders(ctx context.Context) ([]Provider, error)
	UpsertProvider(ctx context.Context, p Provider) error

	// Usage snapshots. SaveSnapshot keeps only the newest snapshots per
	// provider, up to the backend's retention.
	GetLatestSnapshot(ctx context.Context, provider string) (*UsageSnapshot, error)
	ListSnapshots(ctx context.Context, provider string, limit int) ([]UsageSnapshot, error)
	SaveSnapshot(ctx context.Context, snap UsageSnapshot) error

	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}

// DefaultSnapshotRetention is the number of snapshots kept per provider when
// no retention is configured.
const DefaultSnapshotRetention = 100

func normalizeRetention(n int) int {
	if n <= 0 {
		return DefaultSnapshotRetention
	}
	return n
}
