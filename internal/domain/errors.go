package domain

import "errors"

var (
	ErrInsufficientBalance    = errors.New("insufficient wallet balance")
	ErrInvalidStateTransition = errors.New("invalid transaction state transition")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserInactive           = errors.New("user is deactivated")
	ErrDuplicateAccrual       = errors.New("earning already accrued for this date")
	ErrDuplicateCommission    = errors.New("commission already distributed for source transaction")
	ErrInvalidAmount          = errors.New("amount must be positive")

	// ErrValidation wraps request-level validation failures so handlers
	// can map them to 400 without enumerating each message.
	ErrValidation = errors.New("validation failed")
)
