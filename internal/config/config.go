package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bher20/denkiyoho/pkg/demand"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr     string
	FetchTimeout time.Duration
	InsecureTLS  bool
	UserAgent    string

	DBDriver    string
	DBDSN       string
	AutoMigrate bool

	LogLevel  string
	LogFormat string

	// SnapshotMaxAge is how long a stored report is served before the
	// feed is fetched again. Zero always fetches.
	SnapshotMaxAge time.Duration

	// SnapshotRetention is how many stored reports are kept per provider.
	SnapshotRetention int

	// FormatsFile optionally points at a YAML file of extra or
	// replacement feed formats.
	FormatsFile string
}

// FormatsFile is the on-disk shape of DENKIYOHO_FORMATS_FILE.
type FormatsFile struct {
	Formats []FormatEntry `yaml:"formats"`
}

// FormatEntry is a feed format plus the display metadata the registry
// keeps for built-in providers.
type FormatEntry struct {
	demand.Format `yaml:",inline"`
	Region        string `yaml:"region"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	fetchTimeout, err := parseDuration("DENKIYOHO_FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	if fetchTimeout <= 0 {
		return nil, errors.New("DENKIYOHO_FETCH_TIMEOUT must be positive")
	}
	maxAge, err := parseDuration("DENKIYOHO_SNAPSHOT_MAX_AGE", "5m")
	if err != nil {
		return nil, err
	}
	if maxAge < 0 {
		return nil, errors.New("DENKIYOHO_SNAPSHOT_MAX_AGE must not be negative")
	}
	retention, err := strconv.Atoi(envOrDefault("DENKIYOHO_SNAPSHOT_RETENTION", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid DENKIYOHO_SNAPSHOT_RETENTION: %w", err)
	}
	if retention <= 0 {
		return nil, errors.New("DENKIYOHO_SNAPSHOT_RETENTION must be positive")
	}

	cfg := &Config{
		HTTPAddr:          envOrDefault("DENKIYOHO_HTTP_ADDR", ":8000"),
		FetchTimeout:      fetchTimeout,
		InsecureTLS:       parseBool(os.Getenv("DENKIYOHO_INSECURE_TLS")),
		UserAgent:         envOrDefault("DENKIYOHO_USER_AGENT", "denkiyoho/1.0"),
		DBDriver:          envOrDefault("DENKIYOHO_DB_DRIVER", "memory"),
		DBDSN:             os.Getenv("DENKIYOHO_DB_DSN"),
		AutoMigrate:       parseBool(os.Getenv("DENKIYOHO_AUTO_MIGRATE")),
		LogLevel:          envOrDefault("DENKIYOHO_LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("DENKIYOHO_LOG_FORMAT", "json"),
		SnapshotMaxAge:    maxAge,
		SnapshotRetention: retention,
		FormatsFile:       os.Getenv("DENKIYOHO_FORMATS_FILE"),
	}

	switch cfg.DBDriver {
	case "memory", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DENKIYOHO_DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.DBDriver == "sqlite" && cfg.DBDSN == "" {
		cfg.DBDSN = "denkiyoho.db"
	}
	if cfg.DBDriver == "postgres" && cfg.DBDSN == "" {
		return nil, errors.New("DENKIYOHO_DB_DSN is required for the postgres driver")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported DENKIYOHO_LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// LoadFormats reads and validates a formats file. An empty path yields no
// entries.
func LoadFormats(path string) ([]FormatEntry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formats file: %w", err)
	}
	var file FormatsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse formats file %s: %w", path, err)
	}
	seen := make(map[string]bool, len(file.Formats))
	for _, e := range file.Formats {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		// Provider keys are case-insensitive.
		key := strings.ToLower(strings.TrimSpace(e.Key))
		if seen[key] {
			return nil, fmt.Errorf("formats file %s: duplicate key %q", path, e.Key)
		}
		seen[key] = true
	}
	return file.Formats, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func parseBool(v string) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return strings.EqualFold(v, "yes")
}
