package lifecycle

import (
	"context"
	"time"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// Gateway is the minimal contract the lifecycle core needs from a
// billing provider. Implementations (see pkg/billing) own all
// provider-specific naming: plan ids, status strings, and signature
// schemes never leak past this boundary.
type Gateway interface {
	// VerifyAndParseEvent checks the webhook signature over the exact
	// raw bytes and returns the normalized event. Must return
	// ErrSignatureInvalid (wrapped) when verification fails,
	// ErrMalformedEvent for payloads that verify but cannot be parsed,
	// and ErrUnsupportedEvent for verified event types it does not
	// translate.
	VerifyAndParseEvent(ctx context.Context, raw []byte, signatureHeader string) (Event, error)

	// CreateCustomer registers the account with the provider and
	// returns the opaque customer reference.
	CreateCustomer(ctx context.Context, account *Account) (customerRef string, err error)

	// CreateCheckoutSession returns a hosted checkout URL for the tier
	// and billing cycle.
	CreateCheckoutSession(ctx context.Context, customerRef string, tier catalog.Tier, cycle catalog.BillingCycle) (sessionURL string, err error)

	// CancelAtPeriodEnd schedules the subscription to end with the
	// current billing period.
	CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error

	// RetrieveSubscription fetches the provider's current view of a
	// subscription, for drift repair.
	RetrieveSubscription(ctx context.Context, subscriptionRef string) (*SubscriptionInfo, error)
}

// SubscriptionInfo is a provider subscription snapshot.
type SubscriptionInfo struct {
	Status           Status
	Tier             catalog.Tier
	CurrentPeriodEnd *time.Time
}

// EventMeta carries the fields every billing event has: a unique id for
// the idempotency ledger, the provider's own timestamp for ordering,
// and the references used to resolve the target account.
type EventMeta struct {
	EventID         string    // unique per delivery attempt set, reused on redelivery
	Type            string    // provider event name, recorded in the ledger
	OccurredAt      time.Time // provider timestamp, NOT arrival time
	CustomerRef     string
	SubscriptionRef string
}

// Meta returns the event metadata.
func (m EventMeta) Meta() EventMeta { return m }

func (EventMeta) isBillingEvent() {}

// Event is the closed set of billing event kinds. Consumers switch
// exhaustively over the concrete types; adding a kind here is a
// compile-visible obligation for every switch, not a silently-ignored
// default case.
//
// The concrete kinds are CheckoutCompleted, SubscriptionUpdated,
// SubscriptionCancelled, and PaymentFailed.
type Event interface {
	Meta() EventMeta
	isBillingEvent()
}

// CheckoutCompleted reports a finished checkout: the account got a new
// subscription on the given tier.
type CheckoutCompleted struct {
	EventMeta

	Tier        catalog.Tier
	Cycle       catalog.BillingCycle
	TrialEndsAt *time.Time
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// SubscriptionUpdated reports a provider-side subscription change. Tier
// and cycle are nil unless the event explicitly carries a plan change.
type SubscriptionUpdated struct {
	EventMeta

	Status      Status
	NewTier     *catalog.Tier
	NewCycle    *catalog.BillingCycle
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// SubscriptionCancelled reports that the subscription ended.
type SubscriptionCancelled struct {
	EventMeta
}

// PaymentFailed reports a failed renewal payment. The account enters a
// grace period; access is not revoked by this event.
type PaymentFailed struct {
	EventMeta
}
