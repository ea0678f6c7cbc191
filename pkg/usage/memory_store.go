package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

type counterKey struct {
	account uuid.UUID
	metric  catalog.MetricID
	period  PeriodKey
}

// MemoryStore implements Store with an in-process map. Intended for
// tests and single-instance deployments; the mutex provides the
// conditional-increment atomicity the Store contract requires.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[counterKey]int64
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[counterKey]int64),
	}
}

func (ms *MemoryStore) Get(_ context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.counters[counterKey{accountID, metric, period}], nil
}

func (ms *MemoryStore) ConsumeIfBelow(_ context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey, amount, limit int64) (int64, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := counterKey{accountID, metric, period}
	current := ms.counters[key]

	if current+amount > limit {
		return current, false, nil
	}

	current += amount
	ms.counters[key] = current
	return current, true, nil
}

func (ms *MemoryStore) DeletePeriodsBefore(_ context.Context, before PeriodKey) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var removed int64
	for key := range ms.counters {
		if key.period.Before(before) {
			delete(ms.counters, key)
			removed++
		}
	}
	return removed, nil
}
