package logger

import (
	"log/slog"

	"github.com/google/uuid"
)

// Error creates an attribute for a single error under the key "error".
// A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AccountID records the account identifier under the key "account_id".
func AccountID(id uuid.UUID) slog.Attr {
	return slog.String("account_id", id.String())
}

// EventID records a billing event identifier under the key "event_id".
func EventID(id string) slog.Attr {
	return slog.String("event_id", id)
}

// EventType records a billing event type under the key "event_type".
func EventType(t string) slog.Attr {
	return slog.String("event_type", t)
}

// Tier records a subscription tier under the key "tier".
func Tier(tier any) slog.Attr {
	return slog.Any("tier", tier)
}

// Metric records a usage metric identifier under the key "metric".
func Metric(metric any) slog.Attr {
	return slog.Any("metric", metric)
}
