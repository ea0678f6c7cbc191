package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore persists billing accounts. Implementations must make
// Save a full upsert keyed by Account.ID.
type AccountStore interface {
	// Get retrieves an account by id.
	// Returns ErrAccountNotFound if no account exists.
	Get(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCustomerRef retrieves the account linked to a provider
	// customer reference. Returns ErrAccountNotFound when unknown.
	FindByCustomerRef(ctx context.Context, ref string) (*Account, error)

	// FindBySubscriptionRef retrieves the account linked to a provider
	// subscription reference. Returns ErrAccountNotFound when unknown.
	FindBySubscriptionRef(ctx context.Context, ref string) (*Account, error)

	// Save creates or updates an account.
	Save(ctx context.Context, account *Account) error
}

// Outcome is the terminal result recorded for a processed event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied" // account state was changed
	OutcomeIgnored Outcome = "ignored" // deliberately dropped (duplicate, stale, no account)
	OutcomeFailed  Outcome = "failed"  // permanent failure, needs manual follow-up
)

// ProcessedEvent is one row of the idempotency ledger: proof that an
// external event id reached a terminal outcome. Append-only; a row is
// never updated once written, and reprocessing the same id must be a
// no-op.
type ProcessedEvent struct {
	EventID    string
	Type       string
	ReceivedAt time.Time
	Outcome    Outcome
	Note       string // human-readable reason for Ignored/Failed
}

// EventLedger is the idempotency ledger over processed webhook events.
type EventLedger interface {
	// Find retrieves the terminal outcome recorded for an event id.
	// Returns ErrEventNotFound if the event has not been processed.
	Find(ctx context.Context, eventID string) (*ProcessedEvent, error)

	// Record appends a terminal outcome. Returns
	// ErrEventAlreadyRecorded if the event id already has one; the
	// ledger is append-only and rows are never updated.
	Record(ctx context.Context, event ProcessedEvent) error
}
