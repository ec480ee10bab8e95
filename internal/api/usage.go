package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bher20/denkiyoho/internal/metrics"
	"github.com/bher20/denkiyoho/internal/usage"
	"github.com/bher20/denkiyoho/pkg/demand"
	"github.com/bher20/denkiyoho/pkg/providers"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// errNotPublished is reported when a provider's layout has no such block.
var errNotPublished = errors.New("not published")

type usageHandler struct {
	svc    *usage.Service
	logger *slog.Logger
}

// RegisterUsageRoutes serves the /usage/{key} family of endpoints.
func RegisterUsageRoutes(mux *http.ServeMux, svc *usage.Service, logger *slog.Logger) {
	h := &usageHandler{svc: svc, logger: logger}

	mux.HandleFunc("GET /usage/{key}", h.instrument("/usage", h.report))
	mux.HandleFunc("GET /usage/{key}/peak", h.instrument("/usage/peak", h.peak))
	mux.HandleFunc("GET /usage/{key}/hourly", h.instrument("/usage/hourly", h.hourly))
	mux.HandleFunc("GET /usage/{key}/fivemin", h.instrument("/usage/fivemin", h.fiveMinute))
	mux.HandleFunc("GET /usage/{key}/latest", h.instrument("/usage/latest", h.latest))
	mux.HandleFunc("GET /usage/{key}/raw", h.instrument("/usage/raw", h.raw))
	mux.HandleFunc("GET /usage/{key}/history", h.instrument("/usage/history", h.history))
}

// instrument records request metrics and turns handler errors into JSON
// error responses.
func (h *usageHandler) instrument(path string, fn func(http.ResponseWriter, *http.Request, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		key, label := resolveKey(h.svc, r.PathValue("key"))
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(label, path).Observe(time.Since(start).Seconds())
		}()
		metrics.RequestsTotal.WithLabelValues(label).Inc()

		if err := fn(w, r, key); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				h.logger.Error("usage request failed", "provider", key, "path", path, "error", err)
			}
			metrics.RequestErrorsTotal.WithLabelValues(label, path, strconv.Itoa(status)).Inc()
			writeError(w, status, err.Error())
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, providers.ErrProviderNotFound), errors.Is(err, errNotPublished):
		return http.StatusNotFound
	case demand.IsTransport(err):
		return http.StatusBadGateway
	case demand.IsParse(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// blockError converts a recorded per-block failure back into an error.
type blockError struct {
	block string
	msg   string
}

func (e *blockError) Error() string { return e.block + ": " + e.msg }

func (e *blockError) Unwrap() error { return &demand.ParseError{Reason: e.msg} }

func (h *usageHandler) report(w http.ResponseWriter, r *http.Request, key string) error {
	rep, err := h.svc.Report(r.Context(), key)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rep)
	return nil
}

func (h *usageHandler) peak(w http.ResponseWriter, r *http.Request, key string) error {
	rep, err := h.svc.Report(r.Context(), key)
	if err != nil {
		return err
	}
	for _, block := range []string{usage.BlockPeakDemand, usage.BlockPeakSupply} {
		if msg, ok := rep.BlockError(block); ok {
			return &blockError{block: block, msg: msg}
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Provider   string             `json:"provider"`
		PeakDemand *demand.PeakRecord `json:"peak_demand"`
		PeakSupply *demand.PeakRecord `json:"peak_supply"`
	}{key, rep.PeakDemand, rep.PeakSupply})
	return nil
}

func (h *usageHandler) hourly(w http.ResponseWriter, r *http.Request, key string) error {
	rep, err := h.svc.Report(r.Context(), key)
	if err != nil {
		return err
	}
	return writeSamples(w, rep, usage.BlockHourly, rep.HasHourly, rep.Hourly)
}

func (h *usageHandler) fiveMinute(w http.ResponseWriter, r *http.Request, key string) error {
	rep, err := h.svc.Report(r.Context(), key)
	if err != nil {
		return err
	}
	return writeSamples(w, rep, usage.BlockFiveMinute, rep.HasFiveMinute, rep.FiveMinute)
}

func writeSamples(w http.ResponseWriter, rep *usage.Report, block string, present bool, samples []demand.DemandSample) error {
	if !present {
		return errNotPublished
	}
	if msg, ok := rep.BlockError(block); ok {
		return &blockError{block: block, msg: msg}
	}
	if samples == nil {
		samples = []demand.DemandSample{}
	}
	writeJSON(w, http.StatusOK, struct {
		Provider string                `json:"provider"`
		Samples  []demand.DemandSample `json:"samples"`
	}{rep.Provider, samples})
	return nil
}

func (h *usageHandler) latest(w http.ResponseWriter, r *http.Request, key string) error {
	rep, err := h.svc.Report(r.Context(), key)
	if err != nil {
		return err
	}
	if rep.Latest == nil {
		return fmt.Errorf("no reading reported yet: %w", errNotPublished)
	}
	writeJSON(w, http.StatusOK, struct {
		Provider     string               `json:"provider"`
		Latest       *demand.DemandSample `json:"latest"`
		UsagePercent *float64             `json:"usage_percent,omitempty"`
		Summary      string               `json:"summary"`
	}{key, rep.Latest, rep.UsagePercent, latestSummary(rep)})
	return nil
}

func latestSummary(rep *usage.Report) string {
	_, fiveMinute := demand.SeekNearestHistory(rep.FiveMinute)
	text := rep.Latest.Summary(fiveMinute) + rep.Latest.DifferenceText()
	if rep.PeakSupply != nil {
		text += rep.Latest.UsageText(*rep.PeakSupply)
	}
	return text
}

func (h *usageHandler) raw(w http.ResponseWriter, r *http.Request, key string) error {
	text, err := h.svc.Raw(r.Context(), key)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
	return nil
}

func (h *usageHandler) history(w http.ResponseWriter, r *http.Request, key string) error {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return nil
		}
		limit = min(n, maxHistoryLimit)
	}
	reports, err := h.svc.History(r.Context(), key, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, struct {
		Provider string         `json:"provider"`
		Reports  []usage.Report `json:"reports"`
	}{key, reports})
	return nil
}
