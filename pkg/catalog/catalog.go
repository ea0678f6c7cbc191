package catalog

import (
	"errors"
	"fmt"
	"slices"
)

// Catalog is the immutable tier/feature table. Build it once at startup
// with New and pass it by reference; all lookups are read-only and safe
// for concurrent use without locking.
type Catalog struct {
	tiers   map[Tier]TierDefinition
	ordered []TierDefinition // sorted by ordinal
	gate    FeatureGate
	metrics map[MetricID]struct{}
}

// New builds a Catalog from tier definitions and a feature gate,
// validating the whole configuration up front. A misconfigured catalog
// is a startup defect, not a runtime condition: unknown ids, ordinal
// gaps, and ungated features are rejected here so per-request lookups
// never have to tolerate them.
func New(defs []TierDefinition, gate FeatureGate) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, ErrNoTiers
	}

	tiers := make(map[Tier]TierDefinition, len(defs))
	for _, def := range defs {
		if _, exists := tiers[def.ID]; exists {
			return nil, errors.Join(ErrDuplicateTier, fmt.Errorf("tier %q", def.ID))
		}
		if def.TrialDays < 0 {
			return nil, errors.Join(ErrNegativeTrialDays, fmt.Errorf("tier %q has %d trial days", def.ID, def.TrialDays))
		}
		for metric, limit := range def.Limits {
			if limit < 0 && limit != Unlimited {
				return nil, errors.Join(ErrNegativeLimit, fmt.Errorf("tier %q metric %q: %d", def.ID, metric, limit))
			}
		}
		tiers[def.ID] = def
	}

	ordered := slices.Clone(defs)
	slices.SortFunc(ordered, func(a, b TierDefinition) int { return a.Ordinal - b.Ordinal })
	for i, def := range ordered {
		if def.Ordinal != i {
			return nil, errors.Join(ErrOrdinalGap, fmt.Errorf("tier %q has ordinal %d, expected %d", def.ID, def.Ordinal, i))
		}
	}

	// Every tier must cap the same metric set, otherwise LimitFor would
	// have to invent an answer for missing entries at request time.
	metrics := make(map[MetricID]struct{}, len(ordered[0].Limits))
	for metric := range ordered[0].Limits {
		metrics[metric] = struct{}{}
	}
	for _, def := range ordered[1:] {
		if len(def.Limits) != len(metrics) {
			return nil, errors.Join(ErrInconsistentMetrics, fmt.Errorf("tier %q", def.ID))
		}
		for metric := range def.Limits {
			if _, ok := metrics[metric]; !ok {
				return nil, errors.Join(ErrInconsistentMetrics, fmt.Errorf("tier %q defines unexpected metric %q", def.ID, metric))
			}
		}
	}

	for feature, minTier := range gate {
		if _, ok := tiers[minTier]; !ok {
			return nil, errors.Join(ErrUnknownGateTier, fmt.Errorf("feature %q gated at unknown tier %q", feature, minTier))
		}
	}
	for _, def := range defs {
		for _, feature := range def.Features {
			if _, ok := gate[feature]; !ok {
				return nil, errors.Join(ErrUngatedFeature, fmt.Errorf("tier %q grants %q", def.ID, feature))
			}
		}
	}

	gateCopy := make(FeatureGate, len(gate))
	for feature, minTier := range gate {
		gateCopy[feature] = minTier
	}

	return &Catalog{
		tiers:   tiers,
		ordered: ordered,
		gate:    gateCopy,
		metrics: metrics,
	}, nil
}

// MustNew is New that panics on configuration errors. Intended for
// static catalogs wired at process start, where a bad catalog should
// prevent startup entirely.
func MustNew(defs []TierDefinition, gate FeatureGate) *Catalog {
	c, err := New(defs, gate)
	if err != nil {
		panic(fmt.Errorf("catalog: %w", err))
	}
	return c
}

// Definition returns the definition for a tier.
func (c *Catalog) Definition(id Tier) (TierDefinition, bool) {
	def, ok := c.tiers[id]
	return def, ok
}

// Ordinal returns the position of a tier in the tier order.
func (c *Catalog) Ordinal(id Tier) (int, bool) {
	def, ok := c.tiers[id]
	return def.Ordinal, ok
}

// LimitFor returns the usage limit of a metric for a tier, or Unlimited.
// The bool reports whether the tier and metric are known to the catalog.
func (c *Catalog) LimitFor(id Tier, metric MetricID) (int64, bool) {
	def, ok := c.tiers[id]
	if !ok {
		return 0, false
	}
	limit, ok := def.Limits[metric]
	return limit, ok
}

// RequiredTier returns the minimum tier required for a feature.
func (c *Catalog) RequiredTier(feature FeatureID) (Tier, bool) {
	minTier, ok := c.gate[feature]
	return minTier, ok
}

// HasMetric reports whether a metric is part of the catalog.
func (c *Catalog) HasMetric(metric MetricID) bool {
	_, ok := c.metrics[metric]
	return ok
}

// Tiers returns all tier definitions ordered from lowest to highest.
// The returned slice is a copy and may be modified by the caller.
func (c *Catalog) Tiers() []TierDefinition {
	return slices.Clone(c.ordered)
}

// PublicTiers returns the tiers available for self-service signup,
// ordered from lowest to highest. Used for rendering pricing tables.
func (c *Catalog) PublicTiers() []TierDefinition {
	public := make([]TierDefinition, 0, len(c.ordered))
	for _, def := range c.ordered {
		if def.Public {
			public = append(public, def)
		}
	}
	return public
}

// LowestTier returns the tier with ordinal zero. Cancellation and
// signup defaults land here.
func (c *Catalog) LowestTier() Tier {
	return c.ordered[0].ID
}
