// Package pg provides the PostgreSQL infrastructure shared by the
// Postgres-backed stores: pooled connections via pgx with startup
// retries, a health check closure, embedded goose migrations for the
// accounts, usage_counters and processed_events tables, and error
// classification helpers.
//
//	var cfg pg.Config
//	_ = config.Load(&cfg) // caarlos0/env tags on Config
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		log.Fatal(err)
//	}
package pg
