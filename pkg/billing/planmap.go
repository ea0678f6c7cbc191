package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/lifecycle"
)

// Plan identifies a sellable combination of tier and billing cycle.
type Plan struct {
	Tier  catalog.Tier
	Cycle catalog.BillingCycle
}

// PlanMap translates between provider price ids and plans. Provider
// price ids exist only here and in configuration; the lifecycle core
// never sees them.
type PlanMap struct {
	byPrice map[string]Plan
	byPlan  map[Plan]string
}

// NewPlanMap builds a PlanMap from priceID -> plan entries. Each plan
// may only be sold under one price id.
func NewPlanMap(prices map[string]Plan) (*PlanMap, error) {
	if len(prices) == 0 {
		return nil, errors.New("billing: plan map is empty")
	}

	m := &PlanMap{
		byPrice: make(map[string]Plan, len(prices)),
		byPlan:  make(map[Plan]string, len(prices)),
	}
	for priceID, plan := range prices {
		if priceID == "" {
			return nil, errors.New("billing: empty price id in plan map")
		}
		if prior, exists := m.byPlan[plan]; exists {
			return nil, fmt.Errorf("billing: plan %s/%s mapped to both %q and %q",
				plan.Tier, plan.Cycle, prior, priceID)
		}
		m.byPrice[priceID] = plan
		m.byPlan[plan] = priceID
	}
	return m, nil
}

// MustNewPlanMap is NewPlanMap that panics on error, for static
// configuration known at startup.
func MustNewPlanMap(prices map[string]Plan) *PlanMap {
	m, err := NewPlanMap(prices)
	if err != nil {
		panic(err)
	}
	return m
}

// NewPlanMapFromConfig builds a PlanMap from the Config.PriceMap form,
// where each value is "tier:cycle" (e.g. "plus:monthly").
func NewPlanMapFromConfig(prices map[string]string) (*PlanMap, error) {
	parsed := make(map[string]Plan, len(prices))
	for priceID, spec := range prices {
		tier, cycle, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("billing: malformed plan spec %q for price %q, want tier:cycle", spec, priceID)
		}
		parsed[priceID] = Plan{
			Tier:  catalog.Tier(tier),
			Cycle: catalog.BillingCycle(cycle),
		}
	}
	return NewPlanMap(parsed)
}

// PlanByPrice resolves a provider price id to its plan.
func (m *PlanMap) PlanByPrice(priceID string) (Plan, error) {
	plan, ok := m.byPrice[priceID]
	if !ok {
		return Plan{}, errors.Join(ErrPriceNotMapped, fmt.Errorf("price %q", priceID))
	}
	return plan, nil
}

// PriceByPlan resolves a tier and cycle to the provider price id.
func (m *PlanMap) PriceByPlan(tier catalog.Tier, cycle catalog.BillingCycle) (string, error) {
	priceID, ok := m.byPlan[Plan{Tier: tier, Cycle: cycle}]
	if !ok {
		return "", errors.Join(ErrPlanNotMapped, fmt.Errorf("tier %q cycle %q", tier, cycle))
	}
	return priceID, nil
}

// mapProviderStatus translates a Paddle subscription status into the
// lifecycle status set. Paddle's paused means billing stopped without
// cancellation, which is Unpaid in lifecycle terms.
func mapProviderStatus(providerStatus string) (lifecycle.Status, bool) {
	switch strings.ToLower(providerStatus) {
	case "trialing":
		return lifecycle.StatusTrialing, true
	case "active":
		return lifecycle.StatusActive, true
	case "past_due":
		return lifecycle.StatusPastDue, true
	case "paused", "unpaid":
		return lifecycle.StatusUnpaid, true
	case "canceled", "cancelled":
		return lifecycle.StatusCancelled, true
	default:
		return "", false
	}
}
