// Package catalog defines the tier/feature table: ordered entitlement
// tiers, the features each tier grants, and the per-metric usage limits
// it caps.
//
// The Catalog is an immutable configuration object constructed once at
// process start and injected into the entitlement resolver and usage
// tracker. Construction validates the whole table (gapless ordinals,
// every granted feature gated, consistent metric sets) and fails fast,
// so per-request lookups never encounter a half-configured catalog.
//
// # Quick Start
//
//	cat, err := catalog.New(myTiers, myGate)
//	if err != nil {
//		log.Fatal(err) // configuration defect, refuse to start
//	}
//
//	limit, _ := cat.LimitFor(catalog.TierPlus, catalog.MetricExportsPerMonth)
//	required, _ := cat.RequiredTier(catalog.FeatureExport)
//
// A stock Free/Plus/Pro table is available via catalog.Default for
// applications that don't need custom tiers.
package catalog
