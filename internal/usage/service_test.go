package usage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/denkiyoho/internal/config"
	"github.com/bher20/denkiyoho/internal/logging"
	"github.com/bher20/denkiyoho/internal/storage"
	"github.com/bher20/denkiyoho/pkg/demand"
	"github.com/bher20/denkiyoho/pkg/providers"
)

var jst = time.FixedZone("JST", 9*60*60)

func feedDocument() []string {
	lines := []string{
		"2024/7/1 8:30 UPDATE",
		"ピーク時供給力(万kW),時間帯,供給力情報更新日,供給力情報更新時刻",
		"18:00,5000,7/1,8:30",
		"",
		"予想最大電力(万kW),時間帯,予想最大電力情報更新日,予想最大電力情報更新時刻",
		"14:00,4400,7/1,8:30",
		"",
		"DATE,TIME,当日実績(万kW),予測値(万kW),使用率(%)",
	}
	for h := 0; h < 24; h++ {
		today := 0
		if h < 9 {
			today = 3000 + h*10
		}
		lines = append(lines, fmt.Sprintf("2024/7/1,%d:00,%d,%d,60", h, today, 3100+h))
	}
	return lines
}

func testEntry() config.FormatEntry {
	return config.FormatEntry{
		Format: demand.Format{
			Key:                   "test",
			Name:                  "テスト電力",
			SourceURL:             "http://feed.example/juyo-" + demand.DateToken + ".csv",
			PeakDemandLine:        5,
			PeakSupplyLine:        2,
			HourlyDemandStartLine: 8,
			NewFormatDiffField:    true,
		},
		Region: "テスト",
	}
}

type stubFetcher struct {
	lines []string
	err   error
	urls  []string
}

func (f *stubFetcher) FetchLines(_ context.Context, url, _ string) ([]string, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.lines, nil
}

func newTestService(t *testing.T, f demand.Fetcher, st storage.Storage, clock clockwork.Clock) *Service {
	t.Helper()
	return NewServiceWithStorage(Config{
		Catalog:        NewCatalog([]config.FormatEntry{testEntry()}),
		Fetcher:        f,
		SnapshotMaxAge: 5 * time.Minute,
		Clock:          clock,
		Logger:         logging.Discard(),
	}, st)
}

func TestService_Report(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 8, 35, 0, 0, jst))
	f := &stubFetcher{lines: feedDocument()}
	svc := newTestService(t, f, nil, clock)

	r, err := svc.Report(context.Background(), "test")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://feed.example/juyo-20240701.csv"}, f.urls)
	assert.Equal(t, "http://feed.example/juyo-20240701.csv", r.SourceURL)
	assert.Equal(t, "2024/7/1", r.Published)
	assert.Equal(t, "テスト電力", r.Name)
	assert.Equal(t, "テスト", r.Region)
	assert.Empty(t, r.Errors)
	assert.False(t, r.Cached)

	require.NotNil(t, r.PeakDemand)
	assert.Equal(t, 4400, r.PeakDemand.Amount)
	require.NotNil(t, r.PeakSupply)
	assert.Equal(t, 5000, r.PeakSupply.Amount)

	assert.True(t, r.HasHourly)
	require.Len(t, r.Hourly, demand.HourlyBlockRows)
	assert.Equal(t, demand.NoComparison, r.Hourly[0].AmountYesterday)
	assert.False(t, r.HasFiveMinute)
	assert.Nil(t, r.FiveMinute)

	require.NotNil(t, r.Latest)
	assert.Equal(t, "8:00", r.Latest.Time)
	assert.Equal(t, 3080, r.Latest.AmountToday)
	require.NotNil(t, r.UsagePercent)
	assert.InDelta(t, 61.6, *r.UsagePercent, 1e-9)
}

func TestService_Report_UnknownProvider(t *testing.T) {
	svc := newTestService(t, &stubFetcher{}, nil, clockwork.NewFakeClock())

	_, err := svc.Report(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrProviderNotFound)
}

func TestService_Report_TransportError(t *testing.T) {
	f := &stubFetcher{err: errors.New("connection refused")}
	svc := newTestService(t, f, nil, clockwork.NewFakeClock())

	_, err := svc.Report(context.Background(), "test")
	require.Error(t, err)
	assert.True(t, demand.IsTransport(err))
}

func TestService_Report_MalformedBlockIsRecorded(t *testing.T) {
	doc := feedDocument()
	doc[2] = "18:00,unknown,7/1,8:30"
	svc := newTestService(t, &stubFetcher{lines: doc}, nil, clockwork.NewFakeClock())

	r, err := svc.Report(context.Background(), "test")
	require.NoError(t, err)

	msg, ok := r.BlockError(BlockPeakSupply)
	require.True(t, ok)
	assert.Contains(t, msg, "line 2")
	assert.Nil(t, r.PeakSupply)
	assert.Nil(t, r.UsagePercent)

	require.NotNil(t, r.PeakDemand)
	assert.Len(t, r.Hourly, demand.HourlyBlockRows)
	require.NotNil(t, r.Latest)
}

func TestService_Report_PrefersFiveMinuteSamples(t *testing.T) {
	entry := testEntry()
	entry.FiveMinDemandStartLine = 34
	doc := append(feedDocument(),
		"",
		"DATE,TIME,当日実績(５分間隔値)(万kW)",
		"2024/7/1,8:00,3075",
		"2024/7/1,8:05,3090",
		"2024/7/1,8:10,0",
	)
	svc := NewService(Config{
		Catalog: NewCatalog([]config.FormatEntry{entry}),
		Fetcher: &stubFetcher{lines: doc},
		Clock:   clockwork.NewFakeClock(),
		Logger:  logging.Discard(),
	})

	r, err := svc.Report(context.Background(), "test")
	require.NoError(t, err)
	assert.True(t, r.HasFiveMinute)
	require.Len(t, r.FiveMinute, 3)
	require.NotNil(t, r.Latest)
	assert.Equal(t, "8:05", r.Latest.Time)
	assert.Equal(t, 3090, r.Latest.AmountToday)
}

func TestService_Report_ServesFreshSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 8, 35, 0, 0, jst))
	f := &stubFetcher{lines: feedDocument()}
	st := storage.NewMemory()
	svc := newTestService(t, f, st, clock)
	ctx := context.Background()

	first, err := svc.Report(ctx, "test")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	clock.Advance(time.Minute)
	second, err := svc.Report(ctx, "test")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Len(t, f.urls, 1)
	assert.Equal(t, first.Hourly, second.Hourly)

	clock.Advance(5 * time.Minute)
	third, err := svc.Report(ctx, "test")
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, f.urls, 2)

	history, err := svc.History(ctx, "test", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].FetchedAt.After(history[1].FetchedAt))
	assert.True(t, history[0].Cached)
}

func TestService_History_WithoutStorage(t *testing.T) {
	svc := newTestService(t, &stubFetcher{}, nil, clockwork.NewFakeClock())

	history, err := svc.History(context.Background(), "test", 5)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = svc.History(context.Background(), "nope", 5)
	assert.ErrorIs(t, err, providers.ErrProviderNotFound)
}

func TestService_Raw(t *testing.T) {
	f := &stubFetcher{lines: []string{"a,b", "c"}}
	svc := newTestService(t, f, nil, clockwork.NewFakeClock())

	text, err := svc.Raw(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "a,b\nc\n", text)
}

func TestService_SyncProviders(t *testing.T) {
	st := storage.NewMemory()
	svc := newTestService(t, &stubFetcher{}, st, clockwork.NewFakeClock())

	require.NoError(t, svc.SyncProviders(context.Background()))

	stored, err := st.ListProviders(context.Background())
	require.NoError(t, err)
	byKey := make(map[string]storage.Provider, len(stored))
	for _, p := range stored {
		byKey[p.Key] = p
	}
	require.Len(t, byKey, len(svc.Catalog().List()))

	p, ok := byKey["test"]
	require.True(t, ok)
	assert.Equal(t, "http://feed.example/juyo-{date}.csv", p.SourceURL)
	assert.Equal(t, demand.DefaultEncoding, p.Encoding)
	assert.Contains(t, byKey["kyushu"].SourceURL, demand.DateToken)
}

func TestService_Ready(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, newTestService(t, &stubFetcher{}, nil, nil).Ready(ctx))

	svc := newTestService(t, &stubFetcher{}, storage.NewMemory(), nil)
	err := svc.Ready(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not synced")

	require.NoError(t, svc.SyncProviders(ctx))
	assert.NoError(t, svc.Ready(ctx))
}

func TestService_MixedCaseKeys(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 8, 35, 0, 0, jst))
	st := storage.NewMemory()
	svc := newTestService(t, &stubFetcher{lines: feedDocument()}, st, clock)

	rep, err := svc.Report(context.Background(), "Test")
	require.NoError(t, err)
	assert.Equal(t, "test", rep.Provider)

	history, err := svc.History(context.Background(), "TEST", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "test", history[0].Provider)
}
