package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"DENKIYOHO_HTTP_ADDR", "DENKIYOHO_FETCH_TIMEOUT", "DENKIYOHO_DB_DRIVER",
		"DENKIYOHO_DB_DSN", "DENKIYOHO_LOG_FORMAT", "DENKIYOHO_SNAPSHOT_MAX_AGE",
		"DENKIYOHO_AUTO_MIGRATE", "DENKIYOHO_INSECURE_TLS", "DENKIYOHO_SNAPSHOT_RETENTION",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotMaxAge)
	assert.Equal(t, 100, cfg.SnapshotRetention)
	assert.False(t, cfg.AutoMigrate)
	assert.False(t, cfg.InsecureTLS)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DENKIYOHO_HTTP_ADDR", ":9090")
	t.Setenv("DENKIYOHO_FETCH_TIMEOUT", "5s")
	t.Setenv("DENKIYOHO_DB_DRIVER", "sqlite")
	t.Setenv("DENKIYOHO_DB_DSN", "")
	t.Setenv("DENKIYOHO_AUTO_MIGRATE", "yes")
	t.Setenv("DENKIYOHO_LOG_FORMAT", "text")
	t.Setenv("DENKIYOHO_SNAPSHOT_MAX_AGE", "0s")
	t.Setenv("DENKIYOHO_SNAPSHOT_RETENTION", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "denkiyoho.db", cfg.DBDSN)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Zero(t, cfg.SnapshotMaxAge)
	assert.Equal(t, 12, cfg.SnapshotRetention)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"bad timeout":      {"DENKIYOHO_FETCH_TIMEOUT", "soon"},
		"zero timeout":     {"DENKIYOHO_FETCH_TIMEOUT", "0s"},
		"bad driver":       {"DENKIYOHO_DB_DRIVER", "mongo"},
		"postgres no dsn":  {"DENKIYOHO_DB_DRIVER", "postgres"},
		"bad log format":   {"DENKIYOHO_LOG_FORMAT", "xml"},
		"negative max age": {"DENKIYOHO_SNAPSHOT_MAX_AGE", "-1m"},
		"zero retention":   {"DENKIYOHO_SNAPSHOT_RETENTION", "0"},
		"bad retention":    {"DENKIYOHO_SNAPSHOT_RETENTION", "lots"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DENKIYOHO_DB_DSN", "")
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
formats:
  - key: okinawa
    name: 沖縄電力
    region: 沖縄
    source_url: https://example.jp/okinawa-{date}.csv
    peak_demand_line: 5
    peak_supply_line: 2
    five_min_demand_start_line: 44
    fractional_amounts: true
`), 0o644))

	entries, err := LoadFormats(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "okinawa", e.Key)
	assert.Equal(t, "沖縄", e.Region)
	assert.Equal(t, 44, e.FiveMinDemandStartLine)
	assert.True(t, e.FractionalAmounts)
	assert.False(t, e.HasHourlyDemand())
}

func TestLoadFormats_Errors(t *testing.T) {
	entries, err := LoadFormats("")
	assert.NoError(t, err)
	assert.Nil(t, entries)

	_, err = LoadFormats(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	dup := filepath.Join(t.TempDir(), "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte(`
formats:
  - {key: a, source_url: "http://x"}
  - {key: A, source_url: "http://y"}
`), 0o644))
	_, err = LoadFormats(dup)
	assert.ErrorContains(t, err, "duplicate")

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte(`
formats:
  - {key: a, source_url: "http://x", peak_demand_line: -3}
`), 0o644))
	_, err = LoadFormats(invalid)
	assert.Error(t, err)
}
