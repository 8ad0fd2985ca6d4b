package domain

import "errors"

var (
	ErrInsufficientInventory  = errors.New("insufficient inventory")
	ErrInvalidOrExpiredLock   = errors.New("invalid or expired lock")
	ErrLockExpired            = errors.New("lock expired")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrTransactionAborted     = errors.New("transaction aborted")
	ErrJobAlreadyRunning      = errors.New("job already running")
)

// ErrorCode maps a domain error to its wire-level code. Unknown
// errors map to INTERNAL.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientInventory):
		return "INSUFFICIENT_INVENTORY"
	case errors.Is(err, ErrInvalidOrExpiredLock):
		return "INVALID_OR_EXPIRED_LOCK"
	case errors.Is(err, ErrLockExpired):
		return "LOCK_EXPIRED"
	case errors.Is(err, ErrInvalidStateTransition):
		return "INVALID_STATE_TRANSITION"
	case errors.Is(err, ErrBookingNotFound):
		return "BOOKING_NOT_FOUND"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrTransactionAborted):
		return "TRANSACTION_ABORTED"
	case errors.Is(err, ErrJobAlreadyRunning):
		return "JOB_ALREADY_RUNNING"
	default:
		return "INTERNAL"
	}
}
