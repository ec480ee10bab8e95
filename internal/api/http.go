package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bher20/denkiyoho/internal/logging"
	"github.com/bher20/denkiyoho/internal/usage"
)

// NewMux constructs the HTTP mux, wiring in the usage service, metrics, and
// health endpoints.
func NewMux(svc *usage.Service, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = logging.Discard()
	}
	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("GET /metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ready(r.Context()); err != nil {
			logger.Warn("readyz: not ready", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	RegisterProvidersHandler(mux, svc)
	RegisterUsageRoutes(mux, svc, logger)
	RegisterRefreshHandler(mux, svc, logger)

	return mux
}

// unknownProvider labels metrics for keys outside the catalog so arbitrary
// request paths cannot create new series.
const unknownProvider = "unknown"

// resolveKey returns the canonical provider key for a request path value and
// the label to record metrics under.
func resolveKey(svc *usage.Service, raw string) (key, label string) {
	p, err := svc.Catalog().Lookup(raw)
	if err != nil {
		return raw, unknownProvider
	}
	return p.Key(), p.Key()
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
