package quota_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/quota"
	"github.com/dmitrymomot/entitlekit/pkg/usage"
)

func newGuard(t *testing.T, tier catalog.Tier, opts ...quota.GuardOption) (*quota.Guard, *quota.Principal) {
	t.Helper()

	cat := catalog.Default()
	accountID := uuid.New()
	tracker := usage.NewTracker(cat, usage.NewMemoryStore(),
		func(ctx context.Context, id uuid.UUID) (catalog.Tier, error) {
			return tier, nil
		})
	guard := quota.NewGuard(entitlement.NewResolver(cat, entitlement.WithUpgradeURL("/pricing")), tracker, opts...)
	return guard, &quota.Principal{AccountID: accountID, Tier: tier}
}

func TestCheckFeature(t *testing.T) {
	t.Parallel()

	t.Run("nil principal gets authentication error first", func(t *testing.T) {
		t.Parallel()

		guard, _ := newGuard(t, catalog.TierFree)
		err := guard.CheckFeature(context.Background(), nil, catalog.FeatureExport)
		assert.ErrorIs(t, err, quota.ErrAuthenticationRequired)
		assert.NotErrorIs(t, err, quota.ErrTierInsufficient, "anonymous callers learn nothing about plan gates")
	})

	t.Run("insufficient tier carries upgrade details", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierFree)
		err := guard.CheckFeature(context.Background(), principal, catalog.FeatureAIAssist)
		require.ErrorIs(t, err, quota.ErrTierInsufficient)

		var tierErr *quota.TierError
		require.ErrorAs(t, err, &tierErr)
		assert.Equal(t, catalog.TierPro, tierErr.Access.RequiredTier)
		assert.Equal(t, catalog.TierFree, tierErr.Access.UserTier)
		assert.Equal(t, "/pricing", tierErr.Access.UpgradeURL)
	})

	t.Run("sufficient tier passes", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPro)
		assert.NoError(t, guard.CheckFeature(context.Background(), principal, catalog.FeatureAIAssist))
	})

	t.Run("unknown feature is denied", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPro)
		err := guard.CheckFeature(context.Background(), principal, catalog.FeatureID("teleport"))
		assert.ErrorIs(t, err, quota.ErrTierInsufficient)
	})
}

func TestConsume(t *testing.T) {
	t.Parallel()

	t.Run("walks the limit down and then denies", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPlus)
		ctx := context.Background()

		limit, _ := catalog.Default().LimitFor(catalog.TierPlus, catalog.MetricExportsPerMonth)
		for i := int64(1); i <= limit; i++ {
			result, err := guard.Consume(ctx, principal, catalog.MetricExportsPerMonth, 1)
			require.NoError(t, err)
			assert.Equal(t, limit-i, result.Remaining)
		}

		_, err := guard.Consume(ctx, principal, catalog.MetricExportsPerMonth, 1)
		require.ErrorIs(t, err, quota.ErrUsageLimitExceeded)

		var usageErr *quota.UsageError
		require.ErrorAs(t, err, &usageErr)
		assert.Equal(t, limit, usageErr.Result.Limit)
		assert.Equal(t, limit, usageErr.Result.CurrentUsage)
	})

	t.Run("denial does not burn quota", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPlus)
		ctx := context.Background()

		limit, _ := catalog.Default().LimitFor(catalog.TierPlus, catalog.MetricExportsPerMonth)
		// An oversized request is denied without touching the counter.
		_, err := guard.Consume(ctx, principal, catalog.MetricExportsPerMonth, limit+1)
		require.ErrorIs(t, err, quota.ErrUsageLimitExceeded)

		used, _, err := guard.Remaining(ctx, principal, catalog.MetricExportsPerMonth)
		require.NoError(t, err)
		assert.Zero(t, used)
	})

	t.Run("period rollover starts a fresh counter", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
		guard, principal := newGuard(t, catalog.TierPlus, quota.WithClock(func() time.Time { return now }))
		ctx := context.Background()

		limit, _ := catalog.Default().LimitFor(catalog.TierPlus, catalog.MetricExportsPerMonth)
		for i := int64(0); i < limit; i++ {
			_, err := guard.Consume(ctx, principal, catalog.MetricExportsPerMonth, 1)
			require.NoError(t, err)
		}
		_, err := guard.Consume(ctx, principal, catalog.MetricExportsPerMonth, 1)
		require.ErrorIs(t, err, quota.ErrUsageLimitExceeded)

		// Clock crosses into February: no reset job needed, the new
		// period key simply starts at zero.
		now = time.Date(2026, 2, 1, 0, 5, 0, 0, time.UTC)
		result, err := guard.Consume(ctx, principal, catalog.MetricExportsPerMonth, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.CurrentUsage)
	})
}

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("runs op after the full sequence passes", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPlus)
		ran := false
		err := guard.Do(context.Background(), principal, catalog.FeatureExport, catalog.MetricExportsPerMonth,
			func(ctx context.Context) error {
				ran = true
				return nil
			})
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("tier denial never reaches the meter or the op", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierFree)
		err := guard.Do(context.Background(), principal, catalog.FeatureAIAssist, catalog.MetricAISuggestionsPerDay,
			func(ctx context.Context) error {
				t.Fatal("op must not run")
				return nil
			})
		require.ErrorIs(t, err, quota.ErrTierInsufficient)

		used, _, err := guard.Remaining(context.Background(), principal, catalog.MetricExportsPerMonth)
		require.NoError(t, err)
		assert.Zero(t, used)
	})

	t.Run("failed op does not refund the unit", func(t *testing.T) {
		t.Parallel()

		guard, principal := newGuard(t, catalog.TierPlus)
		opErr := errors.New("export render failed")
		err := guard.Do(context.Background(), principal, catalog.FeatureExport, catalog.MetricExportsPerMonth,
			func(ctx context.Context) error { return opErr })
		require.ErrorIs(t, err, opErr)

		used, _, err := guard.Remaining(context.Background(), principal, catalog.MetricExportsPerMonth)
		require.NoError(t, err)
		assert.Equal(t, int64(1), used, "unit stays consumed when the op fails")
	})
}

func TestWithPeriodFunc(t *testing.T) {
	t.Parallel()

	guard, principal := newGuard(t, catalog.TierPro,
		quota.WithClock(func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }),
		quota.WithPeriodFunc(func(now time.Time, metric catalog.MetricID) usage.PeriodKey {
			if metric == catalog.MetricAISuggestionsPerDay {
				return usage.DailyPeriod(now)
			}
			return usage.MonthlyPeriod(now)
		}))

	result, err := guard.Consume(context.Background(), principal, catalog.MetricAISuggestionsPerDay, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.CurrentUsage)
}
