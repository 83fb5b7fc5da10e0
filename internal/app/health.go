package app

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
)

// Pinger is a dependency the health endpoint probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthCheck names a probe. Optional probes report their state without
// failing the endpoint.
type HealthCheck struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler answers 200 when every required probe succeeds and 503
// otherwise.
func HealthHandler(logger *slog.Logger, checks ...HealthCheck) http.HandlerFunc {
	sort.SliceStable(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := healthReport{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for _, c := range checks {
			if c.Pinger == nil {
				continue
			}
			if err := c.Pinger.Ping(ctx); err != nil {
				report.Checks[c.Name] = "down"
				if logger != nil {
					logger.Warn("health check failed", slog.String("check", c.Name), slog.Any("error", err))
				}
				if !c.Optional {
					report.Status = "degraded"
					status = http.StatusServiceUnavailable
				}
				continue
			}
			report.Checks[c.Name] = "ok"
		}
		httpx.JSON(w, status, report)
	}
}
