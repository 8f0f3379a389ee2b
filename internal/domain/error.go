package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrQuotaExceeded      = errors.New("scan quota exceeded")
	ErrFeatureDenied      = errors.New("feature not included in current tier")
	ErrNoFoodDetected     = errors.New("no food detected in image")
	ErrInvalidImage       = errors.New("invalid image payload")
	ErrRateLimited        = errors.New("rate limited")
	ErrProviderDown       = errors.New("provider temporarily unavailable")
	ErrLockNotAcquired    = errors.New("could not acquire lock")
	ErrInvalidExecContext = errors.New("invalid executor context passed to repository")
)
