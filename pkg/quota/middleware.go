package quota

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// RequireFeature is HTTP middleware gating a route on a feature. The
// principal must already be in the request context (see
// SetPrincipalToContext). Denials render the entitlement result as JSON
// so clients can show an upgrade prompt without a second request.
func RequireFeature(g *Guard, feature catalog.FeatureID) func(http.Handler) http.Handler {
	if g == nil {
		panic("quota: guard is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := GetPrincipalFromContext(r.Context())
			if err := g.CheckFeature(r.Context(), p, feature); err != nil {
				renderDenial(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireQuota gates a route on a feature and charges one unit of the
// metric per request. The unit is consumed before the handler runs and
// is not refunded if the handler fails.
func RequireQuota(g *Guard, feature catalog.FeatureID, metric catalog.MetricID) func(http.Handler) http.Handler {
	if g == nil {
		panic("quota: guard is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := GetPrincipalFromContext(r.Context())
			if err := g.CheckFeature(r.Context(), p, feature); err != nil {
				renderDenial(w, err)
				return
			}
			if _, err := g.Consume(r.Context(), p, metric, 1); err != nil {
				renderDenial(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func renderDenial(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	var tierErr *TierError
	var usageErr *UsageError
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
	case errors.As(err, &tierErr):
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(tierErr.Access)
	case errors.As(err, &usageErr):
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(usageErr.Result)
	default:
		// Storage or resolver failure: fail closed without leaking
		// internals to the caller.
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	}
}
