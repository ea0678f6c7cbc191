// Package billing implements the lifecycle billing gateway on Paddle.
//
// Everything Paddle-specific lives here: price ids, webhook event
// names, subscription status strings, and the Paddle-Signature scheme.
// The lifecycle core speaks only in catalog tiers and the sealed event
// union; swapping the provider means reimplementing this package, not
// touching the lifecycle.
//
// The PlanMap is the single place provider price ids meet catalog
// tiers. It is static configuration, validated at startup:
//
//	plans := billing.MustNewPlanMap(map[string]billing.Plan{
//		"pri_plus_monthly": {Tier: catalog.TierPlus, Cycle: catalog.CycleMonthly},
//		"pri_plus_annual":  {Tier: catalog.TierPlus, Cycle: catalog.CycleAnnual},
//		"pri_pro_monthly":  {Tier: catalog.TierPro, Cycle: catalog.CycleMonthly},
//		"pri_pro_annual":   {Tier: catalog.TierPro, Cycle: catalog.CycleAnnual},
//	})
//
//	gateway, err := billing.NewPaddleGateway(cfg, plans)
package billing
