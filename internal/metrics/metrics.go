package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "denkiyoho_fetch_total",
			Help: "Feed downloads per provider and result (ok, error)",
		},
		[]string{"provider", "result"},
	)

	FetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "denkiyoho_fetch_duration_seconds",
			Help:    "Feed download duration in seconds per provider",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "denkiyoho_parse_errors_total",
			Help: "Malformed feed sections per provider and block",
		},
		[]string{"provider", "block"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "denkiyoho_requests_total",
			Help: "Total number of API requests per provider",
		},
		[]string{"provider"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "denkiyoho_request_duration_seconds",
			Help:    "Request duration in seconds per provider and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "path"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "denkiyoho_request_errors_total",
			Help: "Total number of error responses per provider and path",
		},
		[]string{"provider", "path", "code"},
	)

	LatestDemand = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "denkiyoho_latest_demand_man_kw",
			Help: "Most recent non-zero demand reading in man-kW per provider",
		},
		[]string{"provider"},
	)

	UsagePercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "denkiyoho_usage_percent",
			Help: "Latest demand as a percentage of peak supply per provider",
		},
		[]string{"provider"},
	)
)

// ObserveFetch records one feed download.
func ObserveFetch(provider string, startedAt time.Time, err error) {
	FetchDurationSeconds.WithLabelValues(provider).Observe(time.Since(startedAt).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	FetchTotal.WithLabelValues(provider, result).Inc()
}

// UpdateLatest publishes the newest reading and usage for a provider.
func UpdateLatest(provider string, demand int, usage float64) {
	LatestDemand.WithLabelValues(provider).Set(float64(demand))
	UsagePercent.WithLabelValues(provider).Set(usage)
}
