package usage

import "time"

// PeriodKey identifies a usage accounting window. Keys are derived from
// wall-clock time by the caller; a new key implicitly starts a fresh
// counter at zero, so period rollover needs no mutation of old rows.
//
// Keys produced by the helpers below sort lexically in chronological
// order, which is what the housekeeping sweep relies on.
type PeriodKey string

// MonthlyPeriod returns the calendar-month key for t, e.g. "2026-09".
func MonthlyPeriod(t time.Time) PeriodKey {
	return PeriodKey(t.UTC().Format("2006-01"))
}

// DailyPeriod returns the calendar-day key for t, e.g. "2026-09-01".
func DailyPeriod(t time.Time) PeriodKey {
	return PeriodKey(t.UTC().Format("2006-01-02"))
}

// Before reports whether p is an earlier window than other.
func (p PeriodKey) Before(other PeriodKey) bool {
	return string(p) < string(other)
}
