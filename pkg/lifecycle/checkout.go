package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// ErrUnknownTier marks a checkout request for a tier the catalog does
// not define.
var ErrUnknownTier = errors.New("tier not defined in catalog")

// StartCheckout begins a subscription purchase for an account and
// returns the hosted checkout URL. The lowest (free) tier bypasses the
// provider entirely and activates immediately, returning an empty URL.
//
// The account's customer reference is created on first use and saved
// before the session is requested, so a webhook arriving mid-checkout
// can already resolve the account.
func (m *Manager) StartCheckout(ctx context.Context, accountID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle) (string, error) {
	def, ok := m.cat.Definition(tier)
	if !ok {
		return "", errors.Join(ErrUnknownTier, fmt.Errorf("tier %q", tier))
	}

	account, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}

	if account.ExternalSubscriptionRef != "" && account.InGoodStanding() {
		return "", ErrAlreadySubscribed
	}

	// Free tier: no provider involvement, instant activation.
	if def.Ordinal == 0 {
		account.Tier = tier
		account.Status = StatusActive
		account.BillingCycle = catalog.CycleNone
		account.UpdatedAt = m.now()
		if err := m.accounts.Save(ctx, account); err != nil {
			return "", err
		}
		return "", nil
	}

	if account.ExternalCustomerRef == "" {
		customerRef, err := m.gateway.CreateCustomer(ctx, account)
		if err != nil {
			return "", err
		}
		account.ExternalCustomerRef = customerRef
		account.UpdatedAt = m.now()
		if err := m.accounts.Save(ctx, account); err != nil {
			return "", err
		}
	}

	return m.gateway.CreateCheckoutSession(ctx, account.ExternalCustomerRef, tier, cycle)
}

// CancelAtPeriodEnd asks the provider to end the subscription with the
// current billing period. Local state is not changed here: the
// cancellation webhook is the single source of the Cancelled
// transition, so a lost response cannot desynchronize tier and status.
func (m *Manager) CancelAtPeriodEnd(ctx context.Context, accountID uuid.UUID) error {
	account, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if account.ExternalSubscriptionRef == "" {
		return ErrMissingSubscriptionRef
	}
	return m.gateway.CancelAtPeriodEnd(ctx, account.ExternalSubscriptionRef)
}

// SyncSubscription pulls the provider's current view of the account's
// subscription and repairs local drift (missed webhooks, manual
// provider-console changes). Illegal status edges are reported, not
// forced.
func (m *Manager) SyncSubscription(ctx context.Context, accountID uuid.UUID) error {
	account, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if account.ExternalSubscriptionRef == "" {
		return ErrMissingSubscriptionRef
	}

	info, err := m.gateway.RetrieveSubscription(ctx, account.ExternalSubscriptionRef)
	if err != nil {
		return err
	}

	changed := false
	if info.Status != account.Status {
		if !account.Status.CanTransitionTo(info.Status) {
			return errors.Join(ErrInvalidTransition,
				fmt.Errorf("sync %s -> %s", account.Status, info.Status))
		}
		m.log.WarnContext(ctx, "subscription drift repaired",
			slog.String("account_id", account.ID.String()),
			slog.String("local_status", string(account.Status)),
			slog.String("provider_status", string(info.Status)))
		account.Status = info.Status
		changed = true
	}
	if info.Tier != "" && info.Tier != account.Tier {
		account.Tier = info.Tier
		changed = true
	}
	if info.CurrentPeriodEnd != nil {
		account.PeriodEnd = info.CurrentPeriodEnd
		changed = true
	}

	if !changed {
		return nil
	}
	account.UpdatedAt = m.now()
	return m.accounts.Save(ctx, account)
}
