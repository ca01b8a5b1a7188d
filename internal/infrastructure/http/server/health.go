package server

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// RegisterHealth mounts GET /health checking every component
func (s *Server) RegisterHealth(checkers ...HealthChecker) {
	s.Router.Get("/health", HealthHandler(checkers...))
}

// HealthHandler returns 200 when every component answers, 503 otherwise
func HealthHandler(checkers ...HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:     HealthStatusHealthy,
			Timestamp:  time.Now().UTC(),
			Components: make([]ComponentHealth, 0, len(checkers)),
		}

		for _, c := range checkers {
			component := ComponentHealth{Name: c.Name(), Healthy: true}
			if err := c.Ping(ctx); err != nil {
				component.Healthy = false
				component.Message = err.Error()
				resp.Status = HealthStatusUnhealthy
			}
			resp.Components = append(resp.Components, component)
		}

		status := http.StatusOK
		if resp.Status != HealthStatusHealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, resp, status)
	}
}
