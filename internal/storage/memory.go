package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu        sync.RWMutex
	retention int
	providers map[string]Provider
	snaps     map[string][]UsageSnapshot
}

// NewMemory returns an empty MemoryStorage keeping DefaultSnapshotRetention
// snapshots per provider.
func NewMemory() *MemoryStorage {
	return NewMemoryWithRetention(DefaultSnapshotRetention)
}

// NewMemoryWithRetention returns an empty MemoryStorage keeping the newest
// retention snapshots per provider.
func NewMemoryWithRetention(retention int) *MemoryStorage {
	return &MemoryStorage{
		retention: normalizeRetention(retention),
		providers: make(map[string]Provider),
		snaps:     make(map[string][]UsageSnapshot),
	}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) ListProviders(ctx context.Context) ([]Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Provider, 0, len(m.providers))
	for _, p := range m.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStorage) UpsertProvider(ctx context.Context, p Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.Key] = p
	return nil
}

func (m *MemoryStorage) GetLatestSnapshot(ctx context.Context, provider string) (*UsageSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.snaps[provider]
	if len(list) == 0 {
		return nil, nil
	}
	cp := list[len(list)-1]
	return &cp, nil
}

// ListSnapshots returns up to limit snapshots, newest first. A limit of
// zero or less returns all of them.
func (m *MemoryStorage) ListSnapshots(ctx context.Context, provider string, limit int) ([]UsageSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.snaps[provider]
	out := make([]UsageSnapshot, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, list[i])
	}
	return out, nil
}

func (m *MemoryStorage) SaveSnapshot(ctx context.Context, snap UsageSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	list := append(m.snaps[snap.Provider], snap)
	sort.SliceStable(list, func(i, j int) bool { return list[i].FetchedAt.Before(list[j].FetchedAt) })
	if len(list) > m.retention {
		list = append([]UsageSnapshot(nil), list[len(list)-m.retention:]...)
	}
	m.snaps[snap.Provider] = list
	return nil
}
