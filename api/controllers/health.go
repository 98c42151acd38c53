package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/forgeformula/storefront-backend/api/responses"
	"github.com/forgeformula/storefront-backend/pkg/config"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check names a dependency probed by the readiness endpoint.
type Check struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every check and answers 503 when any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if check.Pinger == nil {
				results[check.Name] = "disabled"
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[check.Name] = "error"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "check", check.Name), "health.ready_failed", err)
				}
				continue
			}
			results[check.Name] = "ok"
		}

		overall := "ready"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{"status": overall, "checks": results})
	}
}
