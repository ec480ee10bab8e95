package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bher20/denkiyoho/internal/metrics"
	"github.com/bher20/denkiyoho/internal/usage"
)

// RefreshResponse is the response structure for refresh endpoints.
type RefreshResponse struct {
	Provider string        `json:"provider"`
	URL      string        `json:"url"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Report   *usage.Report `json:"report,omitempty"`
}

// RegisterRefreshHandler serves POST /usage/{key}/refresh, which bypasses
// any stored snapshot and reads the live feed.
func RegisterRefreshHandler(mux *http.ServeMux, svc *usage.Service, logger *slog.Logger) {
	const path = "/usage/refresh"
	mux.HandleFunc("POST /usage/{key}/refresh", func(w http.ResponseWriter, r *http.Request) {
		key, label := resolveKey(svc, r.PathValue("key"))
		metrics.RequestsTotal.WithLabelValues(label).Inc()

		rep, err := svc.Refresh(r.Context(), key)
		if err != nil {
			status := statusFor(err)
			logger.Warn("refresh failed", "provider", key, "error", err)
			metrics.RequestErrorsTotal.WithLabelValues(label, path, strconv.Itoa(status)).Inc()
			writeJSON(w, status, RefreshResponse{Provider: key, Status: "error", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, RefreshResponse{
			Provider: key,
			URL:      rep.SourceURL,
			Status:   "ok",
			Report:   rep,
		})
	})
}
