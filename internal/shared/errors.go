package shared

import "errors"

var (
	// ErrNotFound indicates a referenced branch, currency, or customer does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPeriod indicates a malformed date or a quarter outside [1,4].
	ErrInvalidPeriod = errors.New("invalid reporting period")
	// ErrAlreadyLocked indicates a lock attempt on a period that is already
	// locked. Terminal for the caller, not retryable.
	ErrAlreadyLocked = errors.New("reporting period already locked")
	// ErrEmptyPeriod indicates a lock attempt with zero draft rows. The caller
	// may retry once transactions exist in the period.
	ErrEmptyPeriod = errors.New("reporting period has no transactions")
)
