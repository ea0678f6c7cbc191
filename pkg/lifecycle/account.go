package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// Status is the billing-provider-driven state of an account's
// subscription. Transitions only follow the edges in transitions.go and
// only the lifecycle Manager writes it after signup.
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusUnpaid    Status = "unpaid"
	StatusCancelled Status = "cancelled"
)

// Account is the billing view of an end user: tier, subscription
// status, and the opaque references linking it to the provider.
//
// The Manager owns every field except ID; the entitlement resolver and
// usage tracker read Tier, nothing else writes here.
type Account struct {
	ID           uuid.UUID
	Email        string // billing providers require one to create a customer
	Tier         catalog.Tier
	Status       Status
	BillingCycle catalog.BillingCycle

	// Opaque billing-provider ids, empty until checkout.
	ExternalCustomerRef     string
	ExternalSubscriptionRef string

	TrialEndsAt *time.Time
	PeriodStart *time.Time
	PeriodEnd   *time.Time

	// LastEventAt is the provider timestamp of the last applied billing
	// event. Late-arriving updates older than this are ignored.
	LastEventAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the subscription is in a paid, good-standing state.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// IsTrialing reports whether the subscription is in its trial window.
func (a *Account) IsTrialing() bool {
	return a.Status == StatusTrialing
}

// IsCancelled reports whether the subscription has reached the terminal state.
func (a *Account) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// InGoodStanding reports whether feature access should be granted based
// on status alone. PastDue still counts: a grace period applies before
// any access is revoked.
func (a *Account) InGoodStanding() bool {
	switch a.Status {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	default:
		return false
	}
}

// TrialDaysRemainingAt returns the whole days left in the trial at a
// given instant, zero if not trialing or already expired.
func (a *Account) TrialDaysRemainingAt(now time.Time) int {
	if a.Status != StatusTrialing || a.TrialEndsAt == nil {
		return 0
	}

	remaining := a.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours()/24 + 0.5)
}

// TrialDaysRemaining returns the whole days left in the trial.
func (a *Account) TrialDaysRemaining() int {
	return a.TrialDaysRemainingAt(time.Now().UTC())
}
