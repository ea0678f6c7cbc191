package usage

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// Store is the persistence boundary for usage counters. It is also the
// atomicity boundary: two concurrent ConsumeIfBelow calls for the same
// counter must be serialized by the storage layer, not by the caller.
type Store interface {
	// Get returns the current count for a counter, zero if the counter
	// does not exist yet.
	Get(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey) (int64, error)

	// ConsumeIfBelow atomically increments the counter by amount only
	// if count+amount <= limit, as a single indivisible storage
	// operation. It returns the resulting count and whether the
	// increment was committed; on denial the returned count is the
	// unchanged current value.
	ConsumeIfBelow(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey, amount, limit int64) (count int64, ok bool, err error)

	// DeletePeriodsBefore removes all counters whose period key sorts
	// strictly before the given one, returning the number of counters
	// removed. Safe to run concurrently with live traffic as long as
	// the cutoff is at or before the current period, because live
	// requests only ever touch the current period key.
	DeletePeriodsBefore(ctx context.Context, before PeriodKey) (int64, error)
}
