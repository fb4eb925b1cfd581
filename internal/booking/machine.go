package booking

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

// UpstreamBooking is the subset of upstream.Client the machine needs.
type UpstreamBooking interface {
	Prebook(ctx context.Context, req upstream.PrebookRequest) (*upstream.PrebookResponse, error)
	BookingForm(ctx context.Context, req upstream.BookingFormRequest) (*upstream.BookingFormResponse, error)
	BookingFinish(ctx context.Context, req upstream.BookingFinishRequest) (*upstream.BookingFinishResponse, error)
	BookingStatus(ctx context.Context, orderID int64) (*upstream.BookingStatusResponse, error)
	OrderCancel(ctx context.Context, orderID int64) (*upstream.OrderCancelResponse, error)
}

// Machine drives orders through the states described in spec.md §4.7.
type Machine struct {
	store    Store
	upstream UpstreamBooking
}

func New(store Store, up UpstreamBooking) *Machine {
	return &Machine{store: store, upstream: up}
}

// preferredPaymentOrder is spec.md §4.7's automatic pick: now, hotel,
// deposit.
var preferredPaymentOrder = []upstream.PaymentType{
	upstream.PaymentTypeNow, upstream.PaymentTypeHotel, upstream.PaymentTypeDeposit,
}

func pickPaymentType(offered []upstream.PaymentType) upstream.PaymentType {
	offer := make(map[upstream.PaymentType]bool, len(offered))
	for _, p := range offered {
		offer[p] = true
	}
	for _, pref := range preferredPaymentOrder {
		if offer[pref] {
			return pref
		}
	}
	if len(offered) > 0 {
		return offered[0]
	}
	return upstream.PaymentTypeNow
}

// Prebook runs NEW -> PRICED. Every call creates a new order with a freshly
// generated partner_order_id.
func (m *Machine) Prebook(ctx context.Context, bookHash string) (*Order, error) {
	resp, err := m.upstream.Prebook(ctx, upstream.PrebookRequest{BookHash: bookHash})
	if err != nil {
		return nil, err
	}
	o := Order{
		PartnerOrderID: NewPartnerOrderID(),
		BookHash:       bookHash,
		BookingHash:    resp.BookingHash,
		PriceChanged:   resp.PriceChanged,
		State:          StatePriced,
	}
	if err := m.store.Create(ctx, o); err != nil {
		return nil, upstream.NewError(upstream.KindBackendUnavailable, "booking.prebook", err)
	}
	return &o, nil
}

// Form runs PRICED -> FORMED for an existing order. partnerOrderID must
// already exist in PRICED state.
func (m *Machine) Form(ctx context.Context, partnerOrderID, language string) (*Order, error) {
	o, found, err := m.store.Get(ctx, partnerOrderID)
	if err != nil {
		return nil, upstream.NewError(upstream.KindBackendUnavailable, "booking.form", err)
	}
	if !found {
		return nil, upstream.NewError(upstream.KindNotFound, "booking.form", errOrderNotFound)
	}
	if o.State != StatePriced {
		// Already formed (or beyond): idempotent replay, not an error.
		if o.State == StateFormed || stateRank(o.State) > stateRank(StateFormed) {
			return o, nil
		}
		return nil, upstream.NewError(upstream.KindInvalidInput, "booking.form", errWrongState)
	}

	resp, err := m.upstream.BookingForm(ctx, upstream.BookingFormRequest{
		BookHash:       o.BookHash,
		PartnerOrderID: o.PartnerOrderID,
		Language:       language,
	})
	if err != nil {
		return o, err
	}
	o.OrderID = resp.OrderID
	o.ItemID = resp.ItemID
	o.PaymentType = pickPaymentType(resp.PaymentTypes)
	o.State = StateFormed
	if err := m.store.Update(ctx, *o); err != nil {
		return o, upstream.NewError(upstream.KindBackendUnavailable, "booking.form", err)
	}
	return o, nil
}

// Finish runs FORMED -> PROCESSING. If the order already has an order_id
// past FORMED (a retry), it does NOT re-issue finish — spec.md §4.7
// idempotency: "A retry of booking_finish after an order_id exists must
// NOT re-issue finish; the machine moves directly to polling."
func (m *Machine) Finish(ctx context.Context, partnerOrderID string, guests []upstream.Guest) (*Order, error) {
	o, found, err := m.store.Get(ctx, partnerOrderID)
	if err != nil {
		return nil, upstream.NewError(upstream.KindBackendUnavailable, "booking.finish", err)
	}
	if !found {
		return nil, upstream.NewError(upstream.KindNotFound, "booking.finish", errOrderNotFound)
	}
	if stateRank(o.State) > stateRank(StateFormed) {
		// Already finished or beyond: no-op, caller should poll/consult status.
		return o, nil
	}
	if o.State != StateFormed {
		return nil, upstream.NewError(upstream.KindInvalidInput, "booking.finish", errWrongState)
	}
	if len(guests) == 0 {
		return nil, upstream.NewError(upstream.KindInvalidInput, "booking.finish", errNoGuests)
	}

	_, err = m.upstream.BookingFinish(ctx, upstream.BookingFinishRequest{
		OrderID:        o.OrderID,
		ItemID:         o.ItemID,
		PartnerOrderID: o.PartnerOrderID,
		Guests:         guests,
		PaymentType:    o.PaymentType,
	})
	if err != nil {
		if upstream.Of(err) == upstream.KindSandboxRestriction {
			// Surfaced but state unchanged, per spec.md §4.7.
			return o, err
		}
		return o, err
	}
	o.Guests = guests
	o.State = StateProcessing
	if err := m.store.Update(ctx, *o); err != nil {
		return o, upstream.NewError(upstream.KindBackendUnavailable, "booking.finish", err)
	}
	return o, nil
}

// Status returns the currently persisted order, the read side of spec.md
// §6's /order/status polling contact point.
func (m *Machine) Status(ctx context.Context, partnerOrderID string) (*Order, error) {
	o, found, err := m.store.Get(ctx, partnerOrderID)
	if err != nil {
		return nil, upstream.NewError(upstream.KindBackendUnavailable, "booking.status", err)
	}
	if !found {
		return nil, upstream.NewError(upstream.KindNotFound, "booking.status", errOrderNotFound)
	}
	return o, nil
}

// Cancel transitions to CANCELLED if legal from the order's current state.
func (m *Machine) Cancel(ctx context.Context, partnerOrderID string) (*Order, error) {
	o, found, err := m.store.Get(ctx, partnerOrderID)
	if err != nil {
		return nil, upstream.NewError(upstream.KindBackendUnavailable, "booking.cancel", err)
	}
	if !found {
		return nil, upstream.NewError(upstream.KindNotFound, "booking.cancel", errOrderNotFound)
	}
	if !cancellableFrom[o.State] {
		return nil, upstream.NewError(upstream.KindInvalidInput, "booking.cancel", errNotCancellable)
	}
	_, err = m.upstream.OrderCancel(ctx, o.OrderID)
	if err != nil {
		return o, err
	}
	o.State = StateCancelled
	if err := m.store.Update(ctx, *o); err != nil {
		return o, upstream.NewError(upstream.KindBackendUnavailable, "booking.cancel", err)
	}
	return o, nil
}

// ApplyTerminalStatus is the transition invoked by both the webhook handler
// and the poller upon observing a terminal upstream status for an order.
// A duplicate delivery against an already-terminal order is a no-op
// (spec.md §4.7 / invariant 6).
func (m *Machine) ApplyTerminalStatus(ctx context.Context, orderID int64, status string) error {
	o, found, err := m.store.GetByOrderID(ctx, orderID)
	if err != nil {
		return upstream.NewError(upstream.KindBackendUnavailable, "booking.webhook", err)
	}
	if !found {
		return upstream.NewError(upstream.KindNotFound, "booking.webhook", errOrderNotFound)
	}
	if o.State.isTerminal() {
		log.Debug().Int64("order_id", orderID).Str("state", string(o.State)).Msg("duplicate terminal status delivery, ignored")
		return nil
	}
	next, ok := map[string]State{
		"confirmed": StateConfirmed,
		"failed":    StateFailed,
		"cancelled": StateCancelled,
	}[status]
	if !ok {
		return upstream.NewError(upstream.KindInvalidInput, "booking.webhook", errUnknownStatus)
	}
	o.State = next
	if err := m.store.Update(ctx, *o); err != nil {
		return upstream.NewError(upstream.KindBackendUnavailable, "booking.webhook", err)
	}
	return nil
}

var stateOrder = map[State]int{
	StateNew: 0, StatePriced: 1, StateFormed: 2, StateProcessing: 3,
	StateConfirmed: 4, StateFailed: 4, StateCancelled: 4,
}

func stateRank(s State) int { return stateOrder[s] }
