package quota

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/usage"
)

// Principal is the authenticated caller as the enforcement layer sees
// it: an account and its already-resolved tier. Resolving the tier is
// the authentication layer's job so a single request pays for it once.
type Principal struct {
	AccountID uuid.UUID
	Tier      catalog.Tier
}

// PeriodFunc maps a metric to its accounting period key at a given
// moment. The default buckets everything monthly.
type PeriodFunc func(now time.Time, metric catalog.MetricID) usage.PeriodKey

// Guard composes the entitlement check and the usage meter into the
// single enforcement sequence every protected operation goes through:
// authentication, then feature gate, then quota, then the operation.
type Guard struct {
	resolver *entitlement.Resolver
	tracker  *usage.Tracker
	period   PeriodFunc
	now      func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithPeriodFunc overrides per-metric period bucketing, e.g. to meter
// some metrics daily.
func WithPeriodFunc(fn PeriodFunc) GuardOption {
	return func(g *Guard) {
		if fn != nil {
			g.period = fn
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard creates a Guard. Panics if a dependency is nil to fail fast
// during initialization.
func NewGuard(resolver *entitlement.Resolver, tracker *usage.Tracker, opts ...GuardOption) *Guard {
	if resolver == nil {
		panic("quota: entitlement resolver is required")
	}
	if tracker == nil {
		panic("quota: usage tracker is required")
	}

	g := &Guard{
		resolver: resolver,
		tracker:  tracker,
		period: func(now time.Time, _ catalog.MetricID) usage.PeriodKey {
			return usage.MonthlyPeriod(now)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckFeature verifies the principal may use a feature without
// consuming anything. Returns ErrAuthenticationRequired for a nil
// principal and *TierError (unwrapping to ErrTierInsufficient) when the
// tier does not include the feature.
func (g *Guard) CheckFeature(_ context.Context, p *Principal, feature catalog.FeatureID) error {
	if p == nil {
		return ErrAuthenticationRequired
	}

	access := g.resolver.DescribeAccess(p.Tier, feature)
	if !access.Allowed {
		return &TierError{Access: access}
	}
	return nil
}

// Consume spends amount units of a metric for the current period.
// Returns *UsageError (unwrapping to ErrUsageLimitExceeded) when the
// quota is exhausted; the counter is untouched in that case.
func (g *Guard) Consume(ctx context.Context, p *Principal, metric catalog.MetricID, amount int64) (usage.Result, error) {
	if p == nil {
		return usage.Result{}, ErrAuthenticationRequired
	}

	period := g.period(g.now(), metric)
	result, err := g.tracker.TryConsume(ctx, p.AccountID, metric, period, amount)
	if err != nil {
		return usage.Result{}, err
	}
	if !result.Allowed {
		return result, &UsageError{Result: result}
	}
	return result, nil
}

// Do runs op behind the full enforcement sequence: principal present,
// feature included in the tier, one unit of the metric available. The
// unit is consumed before op runs and is not refunded if op fails;
// occasional overcounting on failures is accepted over the race of
// charging after a visible side effect.
func (g *Guard) Do(ctx context.Context, p *Principal, feature catalog.FeatureID, metric catalog.MetricID, op func(ctx context.Context) error) error {
	if err := g.CheckFeature(ctx, p, feature); err != nil {
		return err
	}
	if _, err := g.Consume(ctx, p, metric, 1); err != nil {
		return err
	}
	return op(ctx)
}

// Remaining reports current usage against the limit for the metric's
// current period, for dashboards and usage meters in the UI.
func (g *Guard) Remaining(ctx context.Context, p *Principal, metric catalog.MetricID) (used, limit int64, err error) {
	if p == nil {
		return 0, 0, ErrAuthenticationRequired
	}
	period := g.period(g.now(), metric)
	return g.tracker.GetUsage(ctx, p.AccountID, metric, period)
}
