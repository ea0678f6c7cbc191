// Package logger builds configured slog.Logger instances and provides
// typed attribute helpers for the identifiers that recur across the
// billing and entitlement packages.
//
//	log := logger.NewFromConfig(cfg, logger.WithService("webhookd"))
//	log.Info("event applied", logger.EventID(id), logger.AccountID(accountID))
package logger
