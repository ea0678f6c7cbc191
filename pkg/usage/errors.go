package usage

import "errors"

var (
	ErrUnknownMetric       = errors.New("metric not defined in catalog")
	ErrUnknownTier         = errors.New("tier not defined in catalog")
	ErrInvalidAmount       = errors.New("consume amount must be positive")
	ErrFailedToResolveTier = errors.New("failed to resolve account tier")
	ErrStorageFailure      = errors.New("usage counter storage failure")
)
