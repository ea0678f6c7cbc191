package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/billing"
	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

func testPlans() map[string]billing.Plan {
	return map[string]billing.Plan{
		"pri_plus_monthly": {Tier: catalog.TierPlus, Cycle: catalog.CycleMonthly},
		"pri_plus_annual":  {Tier: catalog.TierPlus, Cycle: catalog.CycleAnnual},
		"pri_pro_monthly":  {Tier: catalog.TierPro, Cycle: catalog.CycleMonthly},
	}
}

func TestNewPlanMap(t *testing.T) {
	t.Parallel()

	t.Run("valid map resolves both directions", func(t *testing.T) {
		t.Parallel()

		plans, err := billing.NewPlanMap(testPlans())
		require.NoError(t, err)

		plan, err := plans.PlanByPrice("pri_pro_monthly")
		require.NoError(t, err)
		assert.Equal(t, catalog.TierPro, plan.Tier)
		assert.Equal(t, catalog.CycleMonthly, plan.Cycle)

		priceID, err := plans.PriceByPlan(catalog.TierPlus, catalog.CycleAnnual)
		require.NoError(t, err)
		assert.Equal(t, "pri_plus_annual", priceID)
	})

	t.Run("rejects empty map", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewPlanMap(nil)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate plan", func(t *testing.T) {
		t.Parallel()

		prices := testPlans()
		prices["pri_pro_monthly_v2"] = billing.Plan{Tier: catalog.TierPro, Cycle: catalog.CycleMonthly}
		_, err := billing.NewPlanMap(prices)
		assert.Error(t, err)
	})

	t.Run("unmapped price fails loudly", func(t *testing.T) {
		t.Parallel()

		plans := billing.MustNewPlanMap(testPlans())
		_, err := plans.PlanByPrice("pri_unknown")
		assert.ErrorIs(t, err, billing.ErrPriceNotMapped)

		_, err = plans.PriceByPlan(catalog.TierFree, catalog.CycleNone)
		assert.ErrorIs(t, err, billing.ErrPlanNotMapped)
	})
}
