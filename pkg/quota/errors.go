package quota

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/usage"
)

var (
	// ErrAuthenticationRequired means no principal was supplied. Checked
	// first so unauthenticated callers learn nothing about plan gates.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrTierInsufficient means the principal's tier does not include the
	// feature. Use errors.As with *TierError for the upgrade details.
	ErrTierInsufficient = errors.New("tier does not include this feature")

	// ErrUsageLimitExceeded means the metered quota for the current
	// period is exhausted. Use errors.As with *UsageError for the counts.
	ErrUsageLimitExceeded = errors.New("usage limit exceeded for current period")
)

// TierError carries the entitlement denial details for rendering an
// upgrade prompt. It unwraps to ErrTierInsufficient.
type TierError struct {
	Access entitlement.Access
}

func (e *TierError) Error() string {
	return fmt.Sprintf("feature %q requires tier %q, account has %q",
		e.Access.Feature, e.Access.RequiredTier, e.Access.UserTier)
}

func (e *TierError) Unwrap() error { return ErrTierInsufficient }

// UsageError carries the quota denial details, including how much of
// the limit is already used. It unwraps to ErrUsageLimitExceeded.
type UsageError struct {
	Result usage.Result
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("metric %q at %d of %d for current period",
		e.Result.Metric, e.Result.CurrentUsage, e.Result.Limit)
}

func (e *UsageError) Unwrap() error { return ErrUsageLimitExceeded }
