package demand

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateToken is replaced in a Format's SourceURL by the publication day
// formatted as yyyyMMdd.
const DateToken = "{date}"

// DefaultEncoding is used by every known publisher.
const DefaultEncoding = "Shift_JIS"

// jst is the publishers' local time; a day rolls over at midnight JST.
var jst = time.FixedZone("JST", 9*60*60)

// Format describes where each fact lives in one publisher's CSV document.
// Line indices are zero-based. A zero HourlyDemandStartLine or
// FiveMinDemandStartLine means the publisher does not provide that block.
type Format struct {
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	SourceURL string `json:"source_url" yaml:"source_url"`
	Encoding  string `json:"encoding" yaml:"encoding"`

	PeakDemandLine         int `json:"peak_demand_line" yaml:"peak_demand_line"`
	PeakSupplyLine         int `json:"peak_supply_line" yaml:"peak_supply_line"`
	HourlyDemandStartLine  int `json:"hourly_demand_start_line" yaml:"hourly_demand_start_line"`
	FiveMinDemandStartLine int `json:"five_min_demand_start_line" yaml:"five_min_demand_start_line"`

	// NewFormatDiffField marks publishers whose fourth hourly column is a
	// same-day forecast rather than the previous day's actual.
	NewFormatDiffField bool `json:"new_format_diff_field" yaml:"new_format_diff_field"`

	// FractionalAmounts marks publishers that emit decimal man-kW values.
	FractionalAmounts bool `json:"fractional_amounts" yaml:"fractional_amounts"`

	// FiveMinRowLimit caps the five-minute block scan. Zero scans until the
	// first short row or the end of the document.
	FiveMinRowLimit int `json:"five_min_row_limit,omitempty" yaml:"five_min_row_limit,omitempty"`
}

// HasHourlyDemand reports whether the format carries an hourly block.
func (f Format) HasHourlyDemand() bool { return f.HourlyDemandStartLine != 0 }

// HasFiveMinuteDemand reports whether the format carries a five-minute block.
func (f Format) HasFiveMinuteDemand() bool { return f.FiveMinDemandStartLine != 0 }

// IsDated reports whether the source URL changes with the publication day.
func (f Format) IsDated() bool { return strings.Contains(f.SourceURL, DateToken) }

// ResolveURL returns the source URL for the day containing t in JST.
func (f Format) ResolveURL(t time.Time) string {
	if !f.IsDated() {
		return f.SourceURL
	}
	return DatedURL(f.SourceURL, t)
}

// DatedURL interpolates t, as a JST yyyyMMdd date, into template.
func DatedURL(template string, t time.Time) string {
	return strings.ReplaceAll(template, DateToken, t.In(jst).Format("20060102"))
}

// Charset returns the configured encoding or DefaultEncoding.
func (f Format) Charset() string {
	if f.Encoding == "" {
		return DefaultEncoding
	}
	return f.Encoding
}

// Validate checks the descriptor for values no publisher could produce.
func (f Format) Validate() error {
	var errs []error
	if f.Key == "" {
		errs = append(errs, errors.New("key is required"))
	}
	if f.SourceURL == "" {
		errs = append(errs, errors.New("source_url is required"))
	}
	for _, field := range []struct {
		name  string
		value int
	}{
		{"peak_demand_line", f.PeakDemandLine},
		{"peak_supply_line", f.PeakSupplyLine},
		{"hourly_demand_start_line", f.HourlyDemandStartLine},
		{"five_min_demand_start_line", f.FiveMinDemandStartLine},
		{"five_min_row_limit", f.FiveMinRowLimit},
	} {
		if field.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative (got %d)", field.name, field.value))
		}
	}
	if _, err := lookupEncoding(f.Charset()); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("format %q: %w", f.Key, errors.Join(errs...))
	}
	return nil
}
