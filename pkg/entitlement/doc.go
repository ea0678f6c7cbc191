// Package entitlement resolves feature access for a tier against the
// catalog's feature gate.
//
// The resolver is a pure function over immutable catalog data: no side
// effects, no locking. Checks fail closed — a feature that is not in
// the gate table is denied with ErrUnknownFeature rather than silently
// granted, because an unrecognized feature id means the catalog and the
// calling code disagree about what exists.
//
//	resolver := entitlement.NewResolver(cat,
//		entitlement.WithUpgradeURL("https://app.example.com/upgrade"))
//
//	ok, err := resolver.HasAccess(account.Tier, catalog.FeatureExport)
//
// DescribeAccess returns the denial details (required tier, user tier,
// upgrade link) that the API boundary renders as an upgrade prompt.
package entitlement
