package catalog

import "errors"

var (
	ErrNoTiers                 = errors.New("catalog must define at least one tier")
	ErrDuplicateTier           = errors.New("duplicate tier id in catalog")
	ErrOrdinalGap              = errors.New("tier ordinals must be gapless starting from zero")
	ErrUnknownGateTier         = errors.New("feature gate references unknown tier")
	ErrUngatedFeature          = errors.New("tier grants a feature missing from the feature gate")
	ErrNegativeLimit           = errors.New("usage limit must be non-negative or the unlimited sentinel")
	ErrInconsistentMetrics     = errors.New("all tiers must define the same metric set")
	ErrNegativeTrialDays       = errors.New("trial days must be non-negative")
	ErrInvalidCatalogStructure = errors.New("invalid catalog configuration")
)
