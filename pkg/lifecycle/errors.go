package lifecycle

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrEventNotFound        = errors.New("event not found in ledger")
	ErrEventAlreadyRecorded = errors.New("event already has a terminal outcome")

	// ErrSignatureInvalid marks a webhook whose signature does not
	// verify. The delivery is rejected outright, never processed.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrMalformedEvent marks a payload that verified but cannot be
	// parsed. Rejected outright like a bad signature.
	ErrMalformedEvent = errors.New("malformed webhook event")

	// ErrUnsupportedEvent marks a verified event of a type the gateway
	// does not translate. Providers send many event types beyond the
	// ones that drive the lifecycle; these are acknowledged and dropped.
	ErrUnsupportedEvent = errors.New("unsupported webhook event type")

	// ErrEventProcessingTransient marks a failure a provider retry can
	// fix (storage hiccups). No terminal outcome is recorded and the
	// webhook response must be non-success so the provider redelivers.
	ErrEventProcessingTransient = errors.New("transient event processing failure")

	// ErrInvalidTransition marks an event that would move the account
	// along an edge outside the lifecycle table. Permanent: recorded as
	// Failed and acknowledged so the provider stops retrying.
	ErrInvalidTransition = errors.New("invalid subscription status transition")

	ErrMissingSubscriptionRef = errors.New("account has no provider subscription reference")
	ErrMissingCustomerRef     = errors.New("account has no provider customer reference")
	ErrAlreadySubscribed      = errors.New("account already has an active subscription")
)
