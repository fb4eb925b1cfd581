package booking

import "errors"

var (
	errOrderNotFound       = errors.New("order not found")
	errWrongState          = errors.New("order not in expected state for this transition")
	errNoGuests            = errors.New("guests must be non-empty")
	errNotCancellable      = errors.New("order not in a cancellable state")
	errUnknownStatus       = errors.New("unknown terminal status")
	errPollBudgetExhausted = errors.New("booking status poll budget exhausted")
)
