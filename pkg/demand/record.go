package demand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NoComparison is stored in DemandSample.AmountYesterday when the previous
// day's figure is absent or unusable.
const NoComparison = -1048576

// Kind tells a peak demand record from a peak supply record.
type Kind int

const (
	KindDemand Kind = iota
	KindSupply
)

func (k Kind) String() string {
	switch k {
	case KindDemand:
		return "demand"
	case KindSupply:
		return "supply"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText lets Kind appear as "demand"/"supply" in JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText parses the form written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "demand":
		*k = KindDemand
	case "supply":
		*k = KindSupply
	default:
		return fmt.Errorf("unknown peak kind %q", b)
	}
	return nil
}

// PeakRecord is a single peak figure for the current day. Time is kept as
// published; Amount is in man-kW (10,000 kW).
type PeakRecord struct {
	Kind   Kind   `json:"kind"`
	Time   string `json:"time"`
	Amount int    `json:"amount"`
}

// NewPeakRecord builds a PeakRecord from the raw time and amount fields.
func NewPeakRecord(kind Kind, timeText, amountText string, fractional bool) (PeakRecord, error) {
	amount, err := ParseAmount(amountText, fractional)
	if err != nil {
		return PeakRecord{}, err
	}
	return PeakRecord{Kind: kind, Time: strings.TrimSpace(timeText), Amount: amount}, nil
}

// Hour returns the hour portion of Time.
func (r PeakRecord) Hour() (int, error) { return clockField(r.Time, 0) }

// Minute returns the minute portion of Time.
func (r PeakRecord) Minute() (int, error) { return clockField(r.Time, 1) }

// DemandSample is one row of an hourly or five-minute demand block.
type DemandSample struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	AmountToday     int    `json:"amount_today"`
	AmountYesterday int    `json:"amount_yesterday"`
}

// NewDemandSample builds a DemandSample from raw fields. An empty yesterday
// field yields NoComparison.
func NewDemandSample(date, timeText, today, yesterday string, fractional bool) (DemandSample, error) {
	td, err := ParseAmount(today, fractional)
	if err != nil {
		return DemandSample{}, fmt.Errorf("today: %w", err)
	}
	yd := NoComparison
	if strings.TrimSpace(yesterday) != "" {
		if yd, err = ParseAmount(yesterday, fractional); err != nil {
			return DemandSample{}, fmt.Errorf("yesterday: %w", err)
		}
	}
	return DemandSample{
		Date:            strings.TrimSpace(date),
		Time:            strings.TrimSpace(timeText),
		AmountToday:     td,
		AmountYesterday: yd,
	}, nil
}

// HasComparison reports whether AmountYesterday holds a real figure.
func (s DemandSample) HasComparison() bool { return s.AmountYesterday != NoComparison }

// Difference is AmountToday minus AmountYesterday, or 0 without a comparison.
func (s DemandSample) Difference() int {
	if !s.HasComparison() {
		return 0
	}
	return s.AmountToday - s.AmountYesterday
}

// Hour returns the hour portion of Time.
func (s DemandSample) Hour() (int, error) { return clockField(s.Time, 0) }

// Minute returns the minute portion of Time.
func (s DemandSample) Minute() (int, error) { return clockField(s.Time, 1) }

// ParseAmount converts a man-kW field to an integer. Fractional values are
// truncated toward zero when fractional is set and rejected otherwise.
func ParseAmount(s string, fractional bool) (int, error) {
	s = strings.TrimSpace(s)
	if !fractional {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		return v, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return int(d.Truncate(0).IntPart()), nil
}

func clockField(t string, idx int) (int, error) {
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("time %q is not H:MM", t)
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[idx]))
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", t, err)
	}
	return v, nil
}
