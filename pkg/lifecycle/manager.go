package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// Manager drives the subscription lifecycle from verified billing
// events. It is the only writer of account tier/status after signup.
//
// Processing is idempotent: every event id reaches at most one terminal
// outcome in the ledger, duplicates are acknowledged without touching
// state, and out-of-order updates are discarded by event timestamp.
type Manager struct {
	cat      *catalog.Catalog
	accounts AccountStore
	ledger   EventLedger
	gateway  Gateway
	log      *slog.Logger
	now      func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for webhook processing decisions.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager. Panics if any required dependency is
// nil to fail fast during initialization.
func NewManager(cat *catalog.Catalog, accounts AccountStore, ledger EventLedger, gateway Gateway, opts ...ManagerOption) *Manager {
	if cat == nil {
		panic("lifecycle: catalog is required")
	}
	if accounts == nil {
		panic("lifecycle: account store is required")
	}
	if ledger == nil {
		panic("lifecycle: event ledger is required")
	}
	if gateway == nil {
		panic("lifecycle: billing gateway is required")
	}

	m := &Manager{
		cat:      cat,
		accounts: accounts,
		ledger:   ledger,
		gateway:  gateway,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProcessEvent verifies and applies one webhook delivery.
//
// Return value contract for the HTTP boundary: nil means acknowledged
// (applied, duplicate, or deliberately dropped); ErrSignatureInvalid
// and ErrMalformedEvent mean reject the delivery outright; anything
// wrapping ErrEventProcessingTransient means respond non-success so the
// provider's at-least-once delivery retries the same event later.
func (m *Manager) ProcessEvent(ctx context.Context, raw []byte, signatureHeader string) error {
	event, err := m.gateway.VerifyAndParseEvent(ctx, raw, signatureHeader)
	if err != nil {
		// Providers emit many event types beyond the ones that drive the
		// lifecycle; verified-but-untranslated events are acknowledged so
		// the provider does not retry them forever.
		if errors.Is(err, ErrUnsupportedEvent) {
			m.log.DebugContext(ctx, "unsupported webhook event type, acknowledged", slog.Any("error", err))
			return nil
		}
		return err
	}
	meta := event.Meta()

	// Duplicate delivery is expected, not an error: acknowledge without
	// touching account state.
	if prior, err := m.ledger.Find(ctx, meta.EventID); err == nil {
		m.log.InfoContext(ctx, "duplicate webhook delivery, no-op",
			slog.String("event_id", meta.EventID),
			slog.String("event_type", meta.Type),
			slog.String("prior_outcome", string(prior.Outcome)))
		return nil
	} else if !errors.Is(err, ErrEventNotFound) {
		return errors.Join(ErrEventProcessingTransient, err)
	}

	account, err := m.resolveAccount(ctx, meta)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		// Permanent: retrying will not conjure the account. Drop it
		// loudly instead of blocking the provider's retry queue.
		m.log.ErrorContext(ctx, "webhook references no known account, dropping",
			slog.String("event_id", meta.EventID),
			slog.String("event_type", meta.Type),
			slog.String("customer_ref", meta.CustomerRef),
			slog.String("subscription_ref", meta.SubscriptionRef))
		return m.record(ctx, meta, OutcomeIgnored, "no matching account")
	case err != nil:
		return errors.Join(ErrEventProcessingTransient, err)
	}

	outcome, note, err := m.apply(ctx, account, event)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Permanent: the provider will keep redelivering the same
			// illegal edge forever. Record Failed, acknowledge, and
			// leave a loud trail for manual follow-up.
			m.log.ErrorContext(ctx, "permanent webhook processing failure",
				slog.String("event_id", meta.EventID),
				slog.String("event_type", meta.Type),
				slog.String("account_id", account.ID.String()),
				slog.Any("error", err))
			return m.record(ctx, meta, OutcomeFailed, err.Error())
		}
		// Transient: no terminal outcome, fail the delivery so the
		// provider retries.
		return errors.Join(ErrEventProcessingTransient, err)
	}

	m.log.InfoContext(ctx, "webhook processed",
		slog.String("event_id", meta.EventID),
		slog.String("event_type", meta.Type),
		slog.String("account_id", account.ID.String()),
		slog.String("outcome", string(outcome)),
		slog.String("note", note))
	return m.record(ctx, meta, outcome, note)
}

func (m *Manager) record(ctx context.Context, meta EventMeta, outcome Outcome, note string) error {
	err := m.ledger.Record(ctx, ProcessedEvent{
		EventID:    meta.EventID,
		Type:       meta.Type,
		ReceivedAt: m.now(),
		Outcome:    outcome,
		Note:       note,
	})
	// A concurrent delivery of the same event may have recorded first;
	// both deliveries applied-or-ignored the same state, so treat the
	// race as a duplicate, not a failure.
	if err != nil && !errors.Is(err, ErrEventAlreadyRecorded) {
		return errors.Join(ErrEventProcessingTransient, err)
	}
	return nil
}

func (m *Manager) resolveAccount(ctx context.Context, meta EventMeta) (*Account, error) {
	if meta.SubscriptionRef != "" {
		account, err := m.accounts.FindBySubscriptionRef(ctx, meta.SubscriptionRef)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
	}
	if meta.CustomerRef != "" {
		return m.accounts.FindByCustomerRef(ctx, meta.CustomerRef)
	}
	return nil, ErrAccountNotFound
}

// apply mutates the account per the event kind and persists it. The
// switch is exhaustive over the sealed Event union; a kind added to the
// union without a case here lands in the loud default, never a silent
// drop.
func (m *Manager) apply(ctx context.Context, account *Account, event Event) (Outcome, string, error) {
	now := m.now()

	switch e := event.(type) {
	case *CheckoutCompleted:
		// A fresh checkout is a signup, not a transition: it is valid
		// from any prior state, including terminal Cancelled.
		account.Tier = e.Tier
		account.Status = StatusActive
		if e.TrialEndsAt != nil && e.TrialEndsAt.After(now) {
			account.Status = StatusTrialing
		}
		account.BillingCycle = e.Cycle
		if e.SubscriptionRef != "" {
			account.ExternalSubscriptionRef = e.SubscriptionRef
		}
		if e.CustomerRef != "" && account.ExternalCustomerRef == "" {
			account.ExternalCustomerRef = e.CustomerRef
		}
		account.TrialEndsAt = e.TrialEndsAt
		account.PeriodStart = e.PeriodStart
		account.PeriodEnd = e.PeriodEnd
		m.touch(account, e.OccurredAt, now)
		if err := m.accounts.Save(ctx, account); err != nil {
			return "", "", err
		}
		return OutcomeApplied, "checkout completed", nil

	case *SubscriptionUpdated:
		// Delivery order is not guaranteed: last-write-wins by event
		// time, so a late stale update cannot clobber a newer state.
		if e.OccurredAt.Before(account.LastEventAt) {
			return OutcomeIgnored, fmt.Sprintf("stale event: occurred %s, last applied %s",
				e.OccurredAt.Format(time.RFC3339), account.LastEventAt.Format(time.RFC3339)), nil
		}
		if !e.Status.IsValid() {
			return "", "", errors.Join(ErrInvalidTransition, fmt.Errorf("unknown status %q", e.Status))
		}
		if !account.Status.CanTransitionTo(e.Status) {
			return "", "", errors.Join(ErrInvalidTransition,
				fmt.Errorf("%s -> %s", account.Status, e.Status))
		}
		account.Status = e.Status
		if e.NewTier != nil {
			account.Tier = *e.NewTier
		}
		if e.NewCycle != nil {
			account.BillingCycle = *e.NewCycle
		}
		if e.PeriodStart != nil {
			account.PeriodStart = e.PeriodStart
		}
		if e.PeriodEnd != nil {
			account.PeriodEnd = e.PeriodEnd
		}
		m.touch(account, e.OccurredAt, now)
		if err := m.accounts.Save(ctx, account); err != nil {
			return "", "", err
		}
		return OutcomeApplied, "subscription updated", nil

	case *SubscriptionCancelled:
		// Unconditional: Cancelled and back to the lowest tier,
		// whatever the account was on before.
		account.Status = StatusCancelled
		account.Tier = m.cat.LowestTier()
		m.touch(account, e.OccurredAt, now)
		if err := m.accounts.Save(ctx, account); err != nil {
			return "", "", err
		}
		return OutcomeApplied, "subscription cancelled", nil

	case *PaymentFailed:
		if !account.Status.CanTransitionTo(StatusPastDue) {
			return "", "", errors.Join(ErrInvalidTransition,
				fmt.Errorf("%s -> %s on payment failure", account.Status, StatusPastDue))
		}
		// Tier is deliberately untouched: a grace period applies before
		// any access is revoked, and revocation belongs to a separate
		// scheduled sweep.
		account.Status = StatusPastDue
		m.touch(account, e.OccurredAt, now)
		if err := m.accounts.Save(ctx, account); err != nil {
			return "", "", err
		}
		return OutcomeApplied, "payment failed, grace period", nil

	default:
		return "", "", errors.Join(ErrInvalidTransition,
			fmt.Errorf("unhandled event kind %T", event))
	}
}

// touch advances the event-ordering watermark and the updated stamp.
// LastEventAt only moves forward so an applied out-of-order event never
// rewinds the stale-update guard.
func (m *Manager) touch(account *Account, occurredAt, now time.Time) {
	if occurredAt.After(account.LastEventAt) {
		account.LastEventAt = occurredAt
	}
	account.UpdatedAt = now
}
