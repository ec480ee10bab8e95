package demand

import (
	"fmt"
	"strconv"
)

// String renders the record the way publishers phrase it, for example
// "最大電力需要は14時台において4500万kWです。".
func (r PeakRecord) String() string {
	label := "最大電力需要"
	if r.Kind == KindSupply {
		label = "最大電力供給"
	}
	return fmt.Sprintf("%sは%sにおいて%d万kWです。", label, hourText(r.Time, r.Hour), r.Amount)
}

// Summary describes the sample. Hourly samples are named by hour,
// five-minute samples by their full time.
func (s DemandSample) Summary(fiveMinute bool) string {
	when := hourText(s.Time, s.Hour)
	if fiveMinute {
		when = s.Time
	}
	return fmt.Sprintf("%sの需要実績は%d万kWでした。", when, s.AmountToday)
}

// DifferenceText is the day-over-day suffix, or "" without a comparison.
func (s DemandSample) DifferenceText() string {
	if !s.HasComparison() {
		return ""
	}
	d := s.Difference()
	sign := ""
	if d > 0 {
		sign = "+"
	}
	return fmt.Sprintf("(前日比 %s%d 万kW)", sign, d)
}

// UsageText is the usage-percentage suffix relative to supply.
func (s DemandSample) UsageText(supply PeakRecord) string {
	return "(ピーク供給力に対する使用率は " + strconv.FormatFloat(UsagePercentage(s, supply), 'f', 2, 64) + "%)"
}

func hourText(raw string, hour func() (int, error)) string {
	h, err := hour()
	if err != nil {
		return raw
	}
	return strconv.Itoa(h) + "時台"
}
