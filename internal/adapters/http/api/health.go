package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecolens/ecolens/pkg/metrics"
)

// handleHealth handles GET /healthz requests by serving the custom metrics
// registry, so one endpoint covers liveness probes and scrapes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
