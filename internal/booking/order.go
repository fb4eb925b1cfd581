// Package booking implements the order state machine (spec.md §4.7):
// NEW -> PRICED -> FORMED -> PROCESSING -> {CONFIRMED, FAILED, CANCELLED}.
package booking

import (
	"time"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

// State is one of the machine's seven states.
type State string

const (
	StateNew        State = "NEW"
	StatePriced     State = "PRICED"
	StateFormed     State = "FORMED"
	StateProcessing State = "PROCESSING"
	StateConfirmed  State = "CONFIRMED"
	StateFailed     State = "FAILED"
	StateCancelled  State = "CANCELLED"
)

func (s State) isTerminal() bool {
	switch s {
	case StateConfirmed, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// cancellableFrom is spec.md §4.7's "legal from FORMED, PROCESSING, or
// CONFIRMED".
var cancellableFrom = map[State]bool{
	StateFormed:     true,
	StateProcessing: true,
	StateConfirmed:  true,
}

// Order is the persisted record backing one booking (spec.md §6 orders
// table).
type Order struct {
	PartnerOrderID string
	OrderID        int64 // 0 until FORMED
	ItemID         int64
	BookHash       string
	BookingHash    string
	State          State
	PaymentType    upstream.PaymentType
	Guests         []upstream.Guest
	PriceChanged   bool
	LastTransition time.Time
}
