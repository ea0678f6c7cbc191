package entitlement

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// Access result codes surfaced to the API boundary.
const (
	CodeUnknownFeature   = "UNKNOWN_FEATURE"
	CodeTierInsufficient = "TIER_INSUFFICIENT"
)

// Access describes the outcome of an entitlement check in a shape the
// API boundary can render directly (upgrade prompts, pricing links).
type Access struct {
	Allowed      bool              `json:"allowed"`
	Code         string            `json:"code,omitempty"`
	Feature      catalog.FeatureID `json:"feature"`
	RequiredTier catalog.Tier      `json:"requiredTier,omitempty"`
	UserTier     catalog.Tier      `json:"userTier"`
	UpgradeURL   string            `json:"upgradeUrl,omitempty"`
}

// Resolver answers "may this tier use this feature" against the
// catalog's feature gate. It is pure and holds no mutable state, so a
// single instance is safe for concurrent use without locking.
type Resolver struct {
	cat        *catalog.Catalog
	upgradeURL string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithUpgradeURL sets the upgrade URL attached to denied Access results.
func WithUpgradeURL(url string) Option {
	return func(r *Resolver) {
		r.upgradeURL = url
	}
}

// NewResolver creates a Resolver backed by the given catalog.
// Panics if the catalog is nil to fail fast during initialization.
func NewResolver(cat *catalog.Catalog, opts ...Option) *Resolver {
	if cat == nil {
		panic("entitlement: catalog is required")
	}

	r := &Resolver{cat: cat}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasAccess reports whether the tier may use the feature.
//
// A feature absent from the gate is denied with ErrUnknownFeature: an
// unrecognized feature is a configuration defect and must never be
// silently granted. An unknown tier is likewise denied.
func (r *Resolver) HasAccess(tier catalog.Tier, feature catalog.FeatureID) (bool, error) {
	required, ok := r.cat.RequiredTier(feature)
	if !ok {
		return false, errors.Join(ErrUnknownFeature, fmt.Errorf("feature %q", feature))
	}

	userOrd, ok := r.cat.Ordinal(tier)
	if !ok {
		return false, errors.Join(ErrUnknownTier, fmt.Errorf("tier %q", tier))
	}

	requiredOrd, _ := r.cat.Ordinal(required) // gate tiers validated at catalog construction
	return userOrd >= requiredOrd, nil
}

// DescribeAccess returns the full check result including the tier the
// feature requires, for building user-facing upgrade prompts. It never
// returns an error: unknown features and tiers come back as denials
// with the corresponding code.
func (r *Resolver) DescribeAccess(tier catalog.Tier, feature catalog.FeatureID) Access {
	access := Access{
		Feature:  feature,
		UserTier: tier,
	}

	required, ok := r.cat.RequiredTier(feature)
	if !ok {
		access.Code = CodeUnknownFeature
		return access
	}
	access.RequiredTier = required

	allowed, err := r.HasAccess(tier, feature)
	if err != nil || !allowed {
		access.Code = CodeTierInsufficient
		access.UpgradeURL = r.upgradeURL
		return access
	}

	access.Allowed = true
	return access
}
