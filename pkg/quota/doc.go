// Package quota is the enforcement layer in front of metered, gated
// operations. It composes the entitlement resolver (may this tier use
// this feature) with the usage tracker (is there quota left this
// period) into one fixed sequence:
//
//	authentication -> feature gate -> quota consume -> operation
//
// The order matters. An anonymous caller gets 401 before learning
// anything about plan gates; a tier denial never touches counters; and
// the unit is charged before the operation runs, so a crash mid-write
// can overcount but never undercount.
//
// # Quick Start
//
//	resolver := entitlement.NewResolver(cat, entitlement.WithUpgradeURL("/pricing"))
//	tracker := usage.NewTracker(cat, store, tierResolver)
//	guard := quota.NewGuard(resolver, tracker)
//
//	err := guard.Do(ctx, principal, catalog.FeatureExport, catalog.MetricExportsPerMonth, func(ctx context.Context) error {
//		return exportResume(ctx, resumeID)
//	})
//
// HTTP routes use the middleware form:
//
//	r.With(quota.RequireQuota(guard, catalog.FeatureExport, catalog.MetricExportsPerMonth)).
//		Post("/export", exportHandler)
//
// Denials are sentinel errors with detail structs: errors.Is against
// ErrTierInsufficient or ErrUsageLimitExceeded for branching, errors.As
// against *TierError or *UsageError for rendering.
package quota
