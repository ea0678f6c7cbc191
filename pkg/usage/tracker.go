package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// CodeUsageLimitExceeded is the denial code surfaced to the API boundary.
const CodeUsageLimitExceeded = "USAGE_LIMIT_EXCEEDED"

// Result describes the outcome of a consume attempt in a shape the API
// boundary can render directly.
type Result struct {
	Allowed      bool              `json:"allowed"`
	Code         string            `json:"code,omitempty"`
	Metric       catalog.MetricID  `json:"metric"`
	Limit        int64             `json:"limit"` // -1 for unlimited
	CurrentUsage int64             `json:"currentUsage"`
	Remaining    int64             `json:"remaining"` // -1 for unlimited
}

// TierResolver returns the current tier for an account. Must be fast
// and ideally cached, as it is called on every consume attempt.
type TierResolver func(ctx context.Context, accountID uuid.UUID) (catalog.Tier, error)

// Tracker meters per-account, per-metric, per-period consumption
// against the catalog's tier limits.
type Tracker struct {
	cat   *catalog.Catalog
	store Store
	tiers TierResolver
	log   *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the logger used by the housekeeping sweep.
func WithLogger(log *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTracker creates a Tracker. Panics if any required dependency is
// nil to fail fast during initialization.
func NewTracker(cat *catalog.Catalog, store Store, tiers TierResolver, opts ...TrackerOption) *Tracker {
	if cat == nil {
		panic("usage: catalog is required")
	}
	if store == nil {
		panic("usage: store is required")
	}
	if tiers == nil {
		panic("usage: tier resolver is required")
	}

	t := &Tracker{
		cat:   cat,
		store: store,
		tiers: tiers,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GetUsage returns the current count and limit for a metric in the
// given period. Limit is catalog.Unlimited for uncapped metrics, whose
// counters are never persisted and therefore always read as zero.
func (t *Tracker) GetUsage(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey) (used, limit int64, err error) {
	limit, err = t.limitFor(ctx, accountID, metric)
	if err != nil {
		return 0, 0, err
	}

	if limit == catalog.Unlimited {
		return 0, catalog.Unlimited, nil
	}

	used, err = t.store.Get(ctx, accountID, metric, period)
	if err != nil {
		return 0, 0, err
	}
	return used, limit, nil
}

// TryConsume attempts to consume amount units of a metric for the given
// period. The increment is committed atomically only if it keeps the
// counter at or below the tier's limit; on denial the counter is
// untouched and the result carries the current usage for rendering a
// limit message.
//
// Unmetered (unlimited) metrics are always allowed and never persisted,
// which bounds counter storage growth.
func (t *Tracker) TryConsume(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey, amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, errors.Join(ErrInvalidAmount, fmt.Errorf("amount %d", amount))
	}

	limit, err := t.limitFor(ctx, accountID, metric)
	if err != nil {
		return Result{}, err
	}

	if limit == catalog.Unlimited {
		return Result{
			Allowed:   true,
			Metric:    metric,
			Limit:     catalog.Unlimited,
			Remaining: catalog.Unlimited,
		}, nil
	}

	count, committed, err := t.store.ConsumeIfBelow(ctx, accountID, metric, period, amount, limit)
	if err != nil {
		return Result{}, err
	}

	if !committed {
		return Result{
			Allowed:      false,
			Code:         CodeUsageLimitExceeded,
			Metric:       metric,
			Limit:        limit,
			CurrentUsage: count,
		}, nil
	}

	return Result{
		Allowed:      true,
		Metric:       metric,
		Limit:        limit,
		CurrentUsage: count,
		Remaining:    limit - count,
	}, nil
}

// ResetUsageCounters garbage-collects counters from periods strictly
// before the given one. It is an optional housekeeping sweep: rollover
// itself needs no reset, a new period key simply starts at zero. Safe
// to run concurrently with live traffic when the cutoff is the current
// period, since live requests never touch older keys.
func (t *Tracker) ResetUsageCounters(ctx context.Context, before PeriodKey) (int64, error) {
	removed, err := t.store.DeletePeriodsBefore(ctx, before)
	if err != nil {
		return removed, err
	}

	t.log.InfoContext(ctx, "swept expired usage counters",
		slog.String("before_period", string(before)),
		slog.Int64("removed", removed))
	return removed, nil
}

func (t *Tracker) limitFor(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID) (int64, error) {
	tier, err := t.tiers(ctx, accountID)
	if err != nil {
		return 0, errors.Join(ErrFailedToResolveTier, err)
	}

	limit, ok := t.cat.LimitFor(tier, metric)
	if !ok {
		if !t.cat.HasMetric(metric) {
			return 0, errors.Join(ErrUnknownMetric, fmt.Errorf("metric %q", metric))
		}
		return 0, errors.Join(ErrUnknownTier, fmt.Errorf("tier %q", tier))
	}
	return limit, nil
}
