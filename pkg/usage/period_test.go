package usage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/entitlekit/pkg/usage"
)

func TestPeriodKeys(t *testing.T) {
	t.Parallel()

	jan := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, usage.PeriodKey("2026-01"), usage.MonthlyPeriod(jan))
	assert.Equal(t, usage.PeriodKey("2026-02"), usage.MonthlyPeriod(feb))
	assert.Equal(t, usage.PeriodKey("2026-01-31"), usage.DailyPeriod(jan))

	// Keys sort chronologically, including across year boundaries.
	assert.True(t, usage.MonthlyPeriod(jan).Before(usage.MonthlyPeriod(feb)))
	assert.True(t, usage.PeriodKey("2025-12").Before(usage.PeriodKey("2026-01")))
	assert.False(t, usage.MonthlyPeriod(feb).Before(usage.MonthlyPeriod(jan)))

	// Local times normalize to UTC before keying.
	est := time.FixedZone("EST", -5*60*60)
	lateJan := time.Date(2026, 1, 31, 22, 0, 0, 0, est) // Feb 1 03:00 UTC
	assert.Equal(t, usage.PeriodKey("2026-02"), usage.MonthlyPeriod(lateJan))
}
