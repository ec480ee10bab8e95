package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bher20/denkiyoho/internal/logging"
	"github.com/bher20/denkiyoho/internal/metrics"
	"github.com/bher20/denkiyoho/internal/storage"
	"github.com/bher20/denkiyoho/pkg/demand"
)

// Config controls how the usage service behaves.
type Config struct {
	Catalog *Catalog
	Fetcher demand.Fetcher

	// SnapshotMaxAge is how long a stored report is served before the feed
	// is downloaded again. Zero disables snapshot reads.
	SnapshotMaxAge time.Duration

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Service assembles usage reports from provider feeds and caches them.
type Service struct {
	cfg   Config
	store storage.Storage // may be nil
}

// NewService returns a Service that always reads the live feed.
func NewService(cfg Config) *Service {
	return NewServiceWithStorage(cfg, nil)
}

// NewServiceWithStorage returns a Service that records every report in st
// and serves stored reports younger than cfg.SnapshotMaxAge.
func NewServiceWithStorage(cfg Config, st storage.Storage) *Service {
	if cfg.Catalog == nil {
		cfg.Catalog = NewCatalog(nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Service{cfg: cfg, store: st}
}

// Catalog returns the providers the service knows about.
func (s *Service) Catalog() *Catalog { return s.cfg.Catalog }

// Providers lists every known provider with its current layout.
func (s *Service) Providers() []ProviderInfo {
	now := s.cfg.Clock.Now()
	list := s.cfg.Catalog.List()
	out := make([]ProviderInfo, 0, len(list))
	for _, p := range list {
		f := p.Format(now)
		out = append(out, ProviderInfo{
			Key:                 p.Key(),
			Name:                p.Name(),
			Region:              p.Region(),
			SourceURL:           f.SourceURL,
			Encoding:            f.Charset(),
			HasHourlyDemand:     f.HasHourlyDemand(),
			HasFiveMinuteDemand: f.HasFiveMinuteDemand(),
			Fractional:          f.FractionalAmounts,
		})
	}
	return out
}

// Ready reports whether storage is reachable and holds every catalog
// provider. It is always nil without storage.
func (s *Service) Ready(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("storage ping: %w", err)
	}
	stored, err := s.store.ListProviders(ctx)
	if err != nil {
		return fmt.Errorf("list stored providers: %w", err)
	}
	have := make(map[string]bool, len(stored))
	for _, p := range stored {
		have[p.Key] = true
	}
	for _, p := range s.cfg.Catalog.List() {
		if !have[p.Key()] {
			return fmt.Errorf("provider %s not synced to storage", p.Key())
		}
	}
	return nil
}

// SyncProviders writes the catalog to storage.
func (s *Service) SyncProviders(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	for _, p := range s.cfg.Catalog.StorageProviders() {
		if err := s.store.UpsertProvider(ctx, p); err != nil {
			return fmt.Errorf("sync provider %s: %w", p.Key, err)
		}
	}
	return nil
}

// NewParser returns a fresh parser for the provider's current document.
func (s *Service) NewParser(key string) (*demand.Parser, error) {
	p, err := s.cfg.Catalog.Lookup(key)
	if err != nil {
		return nil, err
	}
	return demand.NewParser(p.Format(s.cfg.Clock.Now()), s.fetcherFor(p.Key()), demand.WithClock(s.cfg.Clock)), nil
}

// Report returns the provider's usage report, from storage when a fresh
// snapshot exists and from the live feed otherwise. Only download failures
// and unknown providers are returned as errors.
func (s *Service) Report(ctx context.Context, key string) (*Report, error) {
	p, err := s.cfg.Catalog.Lookup(key)
	if err != nil {
		return nil, err
	}
	if r := s.freshSnapshot(ctx, p.Key()); r != nil {
		return r, nil
	}
	return s.Refresh(ctx, p.Key())
}

// Refresh downloads the provider's feed, builds a report and stores it.
func (s *Service) Refresh(ctx context.Context, key string) (*Report, error) {
	p, err := s.cfg.Catalog.Lookup(key)
	if err != nil {
		return nil, err
	}
	key = p.Key()
	parser := demand.NewParser(p.Format(s.cfg.Clock.Now()), s.fetcherFor(p.Key()), demand.WithClock(s.cfg.Clock))
	if _, err := parser.Lines(ctx); err != nil {
		return nil, err
	}

	r := &Report{
		Provider:  key,
		Name:      p.Name(),
		Region:    p.Region(),
		SourceURL: parser.URL(),
		FetchedAt: s.cfg.Clock.Now().UTC(),
	}
	s.collect(ctx, parser, r)

	if r.Latest != nil {
		usage := 0.0
		if r.UsagePercent != nil {
			usage = *r.UsagePercent
		}
		metrics.UpdateLatest(key, r.Latest.AmountToday, usage)
	}
	s.save(ctx, r)
	return r, nil
}

func (s *Service) collect(ctx context.Context, parser *demand.Parser, r *Report) {
	record := func(block string, err error) bool {
		if err == nil {
			return true
		}
		metrics.ParseErrorsTotal.WithLabelValues(r.Provider, block).Inc()
		s.cfg.Logger.Warn("usage: block unreadable", "provider", r.Provider, "block", block, "error", err)
		r.addError(block, err)
		return false
	}

	if date, err := parser.DateText(ctx); record(BlockDate, err) {
		r.Published = date
	}
	if peak, err := parser.PeakDemand(ctx); record(BlockPeakDemand, err) {
		r.PeakDemand = &peak
	}
	if peak, err := parser.PeakSupply(ctx); record(BlockPeakSupply, err) {
		r.PeakSupply = &peak
	}
	hourly, ok, err := parser.HourlyDemand(ctx)
	r.HasHourly = ok
	if ok && record(BlockHourly, err) {
		r.Hourly = hourly
	}
	fiveMin, ok, err := parser.FiveMinuteDemand(ctx)
	r.HasFiveMinute = ok
	if ok && record(BlockFiveMinute, err) {
		r.FiveMinute = fiveMin
	}

	latest, found := demand.SeekNearestHistory(r.FiveMinute)
	if !found {
		latest, found = demand.SeekNearestHistory(r.Hourly)
	}
	if found {
		r.Latest = &latest
		if r.PeakSupply != nil {
			usage := demand.UsagePercentage(latest, *r.PeakSupply)
			r.UsagePercent = &usage
		}
	}
}

// Raw returns the provider's current document as decoded text.
func (s *Service) Raw(ctx context.Context, key string) (string, error) {
	parser, err := s.NewParser(key)
	if err != nil {
		return "", err
	}
	return parser.RawText(ctx)
}

// History returns up to limit stored reports for a provider, newest first.
func (s *Service) History(ctx context.Context, key string, limit int) ([]Report, error) {
	p, err := s.cfg.Catalog.Lookup(key)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return []Report{}, nil
	}
	key = p.Key()
	snaps, err := s.store.ListSnapshots(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", key, err)
	}
	out := make([]Report, 0, len(snaps))
	for _, snap := range snaps {
		var r Report
		if err := json.Unmarshal(snap.Payload, &r); err != nil {
			s.cfg.Logger.Warn("usage: skipping undecodable snapshot", "provider", key, "id", snap.ID, "error", err)
			continue
		}
		r.Cached = true
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) freshSnapshot(ctx context.Context, key string) *Report {
	if s.store == nil || s.cfg.SnapshotMaxAge <= 0 {
		return nil
	}
	snap, err := s.store.GetLatestSnapshot(ctx, key)
	if err != nil {
		s.cfg.Logger.Warn("usage: snapshot lookup failed", "provider", key, "error", err)
		return nil
	}
	if snap == nil || len(snap.Payload) == 0 {
		return nil
	}
	if s.cfg.Clock.Since(snap.FetchedAt) >= s.cfg.SnapshotMaxAge {
		return nil
	}
	var r Report
	if err := json.Unmarshal(snap.Payload, &r); err != nil {
		return nil
	}
	r.Cached = true
	return &r
}

func (s *Service) save(ctx context.Context, r *Report) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(r)
	if err != nil {
		s.cfg.Logger.Error("usage: encode snapshot", "provider", r.Provider, "error", err)
		return
	}
	snap := storage.UsageSnapshot{
		ID:        uuid.NewString(),
		Provider:  r.Provider,
		Payload:   payload,
		FetchedAt: r.FetchedAt,
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.cfg.Logger.Error("usage: save snapshot", "provider", r.Provider, "error", err)
	}
}

// fetcherFor wraps the configured fetcher with per-provider metrics.
func (s *Service) fetcherFor(key string) demand.Fetcher {
	return demand.FetcherFunc(func(ctx context.Context, url, encoding string) ([]string, error) {
		start := time.Now()
		lines, err := s.cfg.Fetcher.FetchLines(ctx, url, encoding)
		metrics.ObserveFetch(key, start, err)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.cfg.Logger.Warn("usage: fetch failed", "provider", key, "url", url, "error", err)
		}
		return lines, err
	})
}
