package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidExecContext  = errors.New("invalid execution context")
	ErrOperationFailed     = errors.New("operation failed")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
	ErrNoSubscription      = errors.New("no subscription found")
	ErrExpiredSubscription = errors.New("subscription has expired")
	ErrAlreadySubscribed   = errors.New("plan is already active for this user")
	ErrTierNotIncluded     = errors.New("product is not included in the subscription tier")
	ErrDailyLimitReached   = errors.New("daily download limit reached")
	ErrFileNotAttached     = errors.New("product has no file attached")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountInactive     = errors.New("account is not activated")
	ErrTokenNotFound       = errors.New("token not found or expired")
	ErrEventAlreadyHandled = errors.New("webhook event already handled")
	ErrPlanNotPurchasable  = errors.New("plan has no payment price configured")
)
