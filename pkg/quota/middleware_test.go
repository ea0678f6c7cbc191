package quota_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/quota"
	"github.com/dmitrymomot/entitlekit/pkg/usage"
)

// withPrincipal simulates the authentication middleware that would run
// before the enforcement layer.
func withPrincipal(p *quota.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p != nil {
				r = r.WithContext(quota.SetPrincipalToContext(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func TestRequireFeature(t *testing.T) {
	t.Parallel()

	newRouter := func(p *quota.Principal) chi.Router {
		guard, _ := newGuard(t, catalog.TierFree)
		r := chi.NewRouter()
		r.Use(withPrincipal(p))
		r.With(quota.RequireFeature(guard, catalog.FeatureAIAssist)).Get("/ai", okHandler)
		return r
	}

	t.Run("anonymous request is a 401", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ai", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("insufficient tier is a 403 with upgrade prompt", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		principal := &quota.Principal{AccountID: uuid.New(), Tier: catalog.TierFree}
		newRouter(principal).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ai", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)

		var body entitlement.Access
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Allowed)
		assert.Equal(t, entitlement.CodeTierInsufficient, body.Code)
		assert.Equal(t, catalog.TierPro, body.RequiredTier)
		assert.Equal(t, "/pricing", body.UpgradeURL)
	})

	t.Run("sufficient tier reaches the handler", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPro)
		r := chi.NewRouter()
		r.Use(withPrincipal(principal))
		r.With(quota.RequireFeature(guard, catalog.FeatureAIAssist)).Get("/ai", okHandler)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ai", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireQuota(t *testing.T) {
	t.Parallel()

	t.Run("charges one unit per request until exhausted", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPlus)
		r := chi.NewRouter()
		r.Use(withPrincipal(principal))
		r.With(quota.RequireQuota(guard, catalog.FeatureExport, catalog.MetricExportsPerMonth)).Post("/export", okHandler)

		limit, _ := catalog.Default().LimitFor(catalog.TierPlus, catalog.MetricExportsPerMonth)
		for i := int64(0); i < limit; i++ {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body usage.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, usage.CodeUsageLimitExceeded, body.Code)
		assert.Equal(t, limit, body.Limit)
		assert.Equal(t, limit, body.CurrentUsage)
	})

	t.Run("storage failure fails closed with a 500", func(t *testing.T) {
		t.Parallel()

		cat := catalog.Default()
		tracker := usage.NewTracker(cat, usage.NewMemoryStore(),
			func(ctx context.Context, id uuid.UUID) (catalog.Tier, error) {
				return "", context.DeadlineExceeded
			})
		guard := quota.NewGuard(entitlement.NewResolver(cat), tracker)
		principal := &quota.Principal{AccountID: uuid.New(), Tier: catalog.TierPlus}

		r := chi.NewRouter()
		r.Use(withPrincipal(principal))
		r.With(quota.RequireQuota(guard, catalog.FeatureExport, catalog.MetricExportsPerMonth)).Post("/export", okHandler)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
