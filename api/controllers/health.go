package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/docurail/metrodocs-backend/api/responses"
	"github.com/docurail/metrodocs-backend/pkg/config"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/docurail/metrodocs-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

// Pinger is implemented by backing services that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NamedPinger ties a dependency name to its connectivity check.
type NamedPinger struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MetroDocs-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every backing dependency and reports per-dependency
// status. Any failure flips the endpoint to 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...NamedPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MetroDocs-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var failures error
		status := map[string]string{}
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				failures = multierr.Append(failures, err)
				status[dep.Name] = "unreachable"
				continue
			}
			status[dep.Name] = "ok"
		}

		if failures != nil {
			err := pkgerrors.Wrap(pkgerrors.CodeDependency, failures, "dependencies unreachable").WithDetails(status)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": status})
	}
}
