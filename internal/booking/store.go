package booking

import "context"

// Store persists Order rows (spec.md §6 orders table).
type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, partnerOrderID string) (*Order, bool, error)
	GetByOrderID(ctx context.Context, orderID int64) (*Order, bool, error)
	Update(ctx context.Context, o Order) error
}
