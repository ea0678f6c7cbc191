// Package usage meters per-account consumption against the catalog's
// tier limits, with per-period counters and atomic enforcement.
//
// Counters are keyed by (account, metric, period). The period key is
// computed from wall-clock time by the caller (usage.MonthlyPeriod,
// usage.DailyPeriod); a new key implicitly starts a fresh counter at
// zero, so rollover requires no reset mutation. An optional
// ResetUsageCounters sweep garbage-collects expired period rows.
//
// The hard cap is enforced by the Store's ConsumeIfBelow: a single
// conditional increment at the storage layer, never read-then-write
// from the caller, so two concurrent requests cannot both slip under
// the limit and jointly exceed it. Three stores are provided:
//
//   - MemoryStore — mutex-guarded map for tests and single instances
//   - RedisStore — Lua-scripted INCRBY with per-counter TTL
//   - PostgresStore — INSERT ... ON CONFLICT ... WHERE conditional upsert
//
// Unlimited metrics short-circuit: always allowed, never persisted.
//
//	tracker := usage.NewTracker(cat, usage.NewRedisStore(client), tierResolver)
//
//	res, err := tracker.TryConsume(ctx, accountID,
//		catalog.MetricExportsPerMonth, usage.MonthlyPeriod(time.Now()), 1)
//	if err != nil {
//		return err
//	}
//	if !res.Allowed {
//		// render res: {allowed:false, code:"USAGE_LIMIT_EXCEEDED", limit, currentUsage}
//	}
package usage
