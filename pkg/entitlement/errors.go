package entitlement

import "errors"

var (
	// ErrUnknownFeature marks a feature missing from the feature gate.
	// This is a configuration defect; the check fails closed.
	ErrUnknownFeature = errors.New("unknown feature, access denied")

	// ErrUnknownTier marks a tier the catalog does not define.
	ErrUnknownTier = errors.New("unknown tier, access denied")
)
