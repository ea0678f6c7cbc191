package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/entitlekit/pkg/logger"
)

// HealthcheckHandler serves liveness and readiness probes. With no
// dependency checks it always answers 200 ALIVE; with checks (pg and
// redis healthchecks, typically) it answers 200 READY only when all of
// them pass.
func HealthcheckHandler(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
