// webhookd is the billing webhook service: it receives Paddle events,
// drives the subscription lifecycle, and exposes health probes.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/billing"
	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/config"
	"github.com/dmitrymomot/entitlekit/pkg/httpserver"
	"github.com/dmitrymomot/entitlekit/pkg/lifecycle"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
	"github.com/dmitrymomot/entitlekit/pkg/redis"
	"github.com/dmitrymomot/entitlekit/pkg/usage"
)

func main() {
	if err := run(context.Background()); err != nil {
		logger.New(logger.WithService("webhookd")).Error("service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		logCfg     logger.Config
		httpCfg    httpserver.Config
		pgCfg      pg.Config
		redisCfg   redis.Config
		billingCfg billing.Config
	)
	config.MustLoad(&logCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&billingCfg)

	log := logger.NewFromConfig(logCfg, logger.WithService("webhookd"))

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	plans, err := billing.NewPlanMapFromConfig(billingCfg.PriceMap)
	if err != nil {
		return err
	}
	gateway, err := billing.NewPaddleGateway(billingCfg, plans)
	if err != nil {
		return err
	}

	accounts := lifecycle.NewPostgresAccountStore(pool)
	manager := lifecycle.NewManager(
		catalog.Default(),
		accounts,
		lifecycle.NewPostgresEventLedger(pool),
		gateway,
		lifecycle.WithLogger(log),
	)

	// The usage counters live in Redis; webhookd owns their
	// housekeeping sweep so expired periods do not pile up.
	usageStore := usage.NewRedisStore(redisClient)
	tracker := usage.NewTracker(catalog.Default(), usageStore,
		func(ctx context.Context, accountID uuid.UUID) (catalog.Tier, error) {
			account, err := accounts.Get(ctx, accountID)
			if err != nil {
				return "", err
			}
			return account.Tier, nil
		},
		usage.WithLogger(log),
	)
	go sweepExpiredCounters(ctx, tracker, log)

	router := chi.NewRouter()
	router.Mount("/webhooks/billing", lifecycle.Router(manager, lifecycle.WithHandlerLogger(log)))
	router.Method(http.MethodGet, "/healthz", httpserver.HealthcheckHandler(log))
	router.Method(http.MethodGet, "/readyz", httpserver.HealthcheckHandler(log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))

	return httpserver.New(httpCfg, httpserver.WithLogger(log)).Run(ctx, router)
}

// sweepExpiredCounters deletes usage counters older than the previous
// month, once a day. Rollover itself needs no sweep, a new period key
// starts at zero; this only bounds storage growth.
func sweepExpiredCounters(ctx context.Context, tracker *usage.Tracker, log *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cutoff := usage.MonthlyPeriod(now.AddDate(0, -1, 0))
			if _, err := tracker.ResetUsageCounters(ctx, cutoff); err != nil {
				log.ErrorContext(ctx, "usage counter sweep failed", logger.Error(err))
			}
		}
	}
}
