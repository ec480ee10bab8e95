package api

import (
	"net/http"

	"github.com/bher20/denkiyoho/internal/usage"
)

// RegisterProvidersHandler serves GET /providers.
func RegisterProvidersHandler(mux *http.ServeMux, svc *usage.Service) {
	mux.HandleFunc("GET /providers", func(w http.ResponseWriter, r *http.Request) {
		response := struct {
			Providers []usage.ProviderInfo `json:"providers"`
		}{
			Providers: svc.Providers(),
		}
		writeJSON(w, http.StatusOK, response)
	})
}
