// Package httpapi mounts the streamable MCP endpoint next to health and
// metrics endpoints when the server runs over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus reports cached component health.
type HealthStatus interface {
	Name() string
	IsHealthy() bool
}

// NewRouter returns a router serving mcp under /mcp, plus /healthz and /metrics.
func NewRouter(mcp http.Handler, checks ...HealthStatus) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, RecoveryMiddleware)

	r.PathPrefix("/mcp").Handler(mcp)
	r.HandleFunc("/healthz", healthHandler(checks)).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

func healthHandler(checks []HealthStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		components := make(map[string]string, len(checks))
		status, code := "UP", http.StatusOK
		for _, c := range checks {
			if c.IsHealthy() {
				components[c.Name()] = "UP"
				continue
			}
			components[c.Name()] = "DOWN"
			status, code = "DOWN", http.StatusServiceUnavailable
		}
		WriteJSON(w, code, map[string]interface{}{
			"status":     status,
			"components": components,
		})
	}
}
