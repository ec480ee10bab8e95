package usage

import (
	"time"

	"github.com/bher20/denkiyoho/pkg/demand"
)

// Block names used in Report.Errors and as metric labels.
const (
	BlockDate       = "date"
	BlockPeakDemand = "peak_demand"
	BlockPeakSupply = "peak_supply"
	BlockHourly     = "hourly"
	BlockFiveMinute = "five_minute"
)

// Report is everything one fetch of a provider's feed yielded. A block that
// failed to parse is left empty and its error is recorded in Errors, so a
// single malformed section does not hide the rest of the document.
type Report struct {
	Provider  string    `json:"provider"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	SourceURL string    `json:"source_url"`
	Published string    `json:"published,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`

	PeakDemand *demand.PeakRecord `json:"peak_demand,omitempty"`
	PeakSupply *demand.PeakRecord `json:"peak_supply,omitempty"`

	HasHourly     bool                  `json:"has_hourly"`
	Hourly        []demand.DemandSample `json:"hourly,omitempty"`
	HasFiveMinute bool                  `json:"has_five_minute"`
	FiveMinute    []demand.DemandSample `json:"five_minute,omitempty"`

	// Latest is the newest non-zero sample, preferring the five-minute
	// block over the hourly one.
	Latest       *demand.DemandSample `json:"latest,omitempty"`
	UsagePercent *float64             `json:"usage_percent,omitempty"`

	Errors map[string]string `json:"errors,omitempty"`
	Cached bool              `json:"cached"`
}

// BlockError returns the recorded parse error for block, if any.
func (r *Report) BlockError(block string) (string, bool) {
	msg, ok := r.Errors[block]
	return msg, ok
}

func (r *Report) addError(block string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[block] = err.Error()
}

// ProviderInfo is the listing entry for one provider.
type ProviderInfo struct {
	Key                 string `json:"key"`
	Name                string `json:"name"`
	Region              string `json:"region"`
	SourceURL           string `json:"source_url"`
	Encoding            string `json:"encoding"`
	HasHourlyDemand     bool   `json:"has_hourly_demand"`
	HasFiveMinuteDemand bool   `json:"has_five_minute_demand"`
	Fractional          bool   `json:"fractional_amounts"`
}
