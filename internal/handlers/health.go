package handlers

import (
	"net/http"
	"time"
)

// Pinger reports whether the run-ledger database is reachable.
type Pinger interface {
	Ping() error
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Services  map[string]string `json:"services"`
}

// HealthCheck returns an HTTP handler reporting ledger connectivity and
// process uptime.
func HealthCheck(ledger Pinger, startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := map[string]string{"api": "healthy"}

		if err := ledger.Ping(); err != nil {
			services["ledger"] = "unhealthy"
		} else {
			services["ledger"] = "healthy"
		}

		response := HealthResponse{
			Status:    getOverallStatus(services),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Services:  services,
		}

		code := http.StatusOK
		if response.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		WriteJSON(w, code, response)
	}
}

// getOverallStatus determines the overall health status
func getOverallStatus(services map[string]string) string {
	for _, status := range services {
		if status == "unhealthy" {
			return "unhealthy"
		}
	}
	return "healthy"
}
