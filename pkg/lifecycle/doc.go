// Package lifecycle manages an account's subscription state from
// billing-provider webhook events: the five-state status machine, the
// idempotency ledger over processed event ids, and the checkout,
// cancellation and drift-repair calls to the provider.
//
// # Why this is not just a switch on event type
//
// Provider notifications are at-least-once and unordered. The Manager
// therefore never trusts delivery: every event carries a unique id
// checked against an append-only ledger (duplicates acknowledge without
// touching state), subscription updates are ordered by the event's own
// timestamp rather than arrival time (stale updates are dropped), and
// transient storage failures deliberately fail the delivery so the
// provider retries the same event later. A webhook for an unknown
// account is permanent — it is recorded as ignored and acknowledged,
// loudly logged, instead of clogging the provider's retry queue.
//
// Events are a sealed union (CheckoutCompleted, SubscriptionUpdated,
// SubscriptionCancelled, PaymentFailed); the Manager switches over the
// concrete kinds exhaustively.
//
// # Quick Start
//
//	manager := lifecycle.NewManager(cat, accountStore, ledger, gateway)
//
//	// mount the webhook endpoint
//	r.Mount("/webhooks/billing", lifecycle.Router(manager))
//
//	// start a subscription purchase
//	url, err := manager.StartCheckout(ctx, accountID, catalog.TierPro, catalog.CycleMonthly)
//
// The Manager is the only writer of an account's tier and status after
// signup; the entitlement resolver and usage tracker observe its
// effects on the next request.
package lifecycle
