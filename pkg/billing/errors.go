package billing

import "errors"

var (
	ErrFailedToCreatePaddleClient = errors.New("failed to create paddle client")
	ErrFailedToCreateCustomer     = errors.New("failed to create paddle customer")
	ErrFailedToCreateCheckout     = errors.New("failed to create paddle checkout session")
	ErrFailedToCancelSubscription = errors.New("failed to cancel paddle subscription")
	ErrFailedToGetSubscription    = errors.New("failed to retrieve paddle subscription")

	// ErrPriceNotMapped marks a provider price id the plan map does not
	// know. A misconfigured plan map must fail loudly, never default to
	// some tier.
	ErrPriceNotMapped = errors.New("provider price id not in plan map")

	// ErrPlanNotMapped is the reverse direction: no provider price
	// configured for a tier and billing cycle.
	ErrPlanNotMapped = errors.New("no provider price for tier and cycle")
)
