// status_handler.go - HTTP handler for /status
package server

import (
	"encoding/json"
	"net/http"
)

// HandleStatus responds to /status with gateway status
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	metrics := s.GetGatewayMetrics()

	// Derive gateway health status from metrics
	status := "healthy"
	if !metrics.StoreReachable {
		status = "degraded"
	}

	resp := StatusResponse{
		Status:     status,
		Uptime:     metrics.UptimeSeconds,
		Version:    GatewayVersion(),
		APIVersion: APIVersion(),
		Metrics:    metrics,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
