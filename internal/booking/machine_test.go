package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

type memStore struct {
	byPartner map[string]Order
}

func newMemStore() *memStore { return &memStore{byPartner: map[string]Order{}} }

func (s *memStore) Create(ctx context.Context, o Order) error {
	s.byPartner[o.PartnerOrderID] = o
	return nil
}

func (s *memStore) Get(ctx context.Context, partnerOrderID string) (*Order, bool, error) {
	o, ok := s.byPartner[partnerOrderID]
	if !ok {
		return nil, false, nil
	}
	return &o, true, nil
}

func (s *memStore) GetByOrderID(ctx context.Context, orderID int64) (*Order, bool, error) {
	for _, o := range s.byPartner {
		if o.OrderID == orderID {
			return &o, true, nil
		}
	}
	return nil, false, nil
}

func (s *memStore) Update(ctx context.Context, o Order) error {
	s.byPartner[o.PartnerOrderID] = o
	return nil
}

type fakeUpstreamBooking struct {
	prebookResp      *upstream.PrebookResponse
	formResp         *upstream.BookingFormResponse
	finishErr        error
	statusResp       *upstream.BookingStatusResponse
	finishCalls      int
	cancelCalls      int
}

func (f *fakeUpstreamBooking) Prebook(ctx context.Context, req upstream.PrebookRequest) (*upstream.PrebookResponse, error) {
	return f.prebookResp, nil
}
func (f *fakeUpstreamBooking) BookingForm(ctx context.Context, req upstream.BookingFormRequest) (*upstream.BookingFormResponse, error) {
	return f.formResp, nil
}
func (f *fakeUpstreamBooking) BookingFinish(ctx context.Context, req upstream.BookingFinishRequest) (*upstream.BookingFinishResponse, error) {
	f.finishCalls++
	if f.finishErr != nil {
		return nil, f.finishErr
	}
	return &upstream.BookingFinishResponse{OrderID: req.OrderID, Status: "processing"}, nil
}
func (f *fakeUpstreamBooking) BookingStatus(ctx context.Context, orderID int64) (*upstream.BookingStatusResponse, error) {
	return f.statusResp, nil
}
func (f *fakeUpstreamBooking) OrderCancel(ctx context.Context, orderID int64) (*upstream.OrderCancelResponse, error) {
	f.cancelCalls++
	return &upstream.OrderCancelResponse{OrderID: orderID, Cancelled: true}, nil
}

func TestMachine_FullHappyPath(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{
		prebookResp: &upstream.PrebookResponse{BookingHash: "bh-1"},
		formResp:    &upstream.BookingFormResponse{OrderID: 42, ItemID: 7, PaymentTypes: []upstream.PaymentType{upstream.PaymentTypeHotel, upstream.PaymentTypeNow}},
	}
	m := New(store, up)

	o, err := m.Prebook(context.Background(), "h-abc")
	require.NoError(t, err)
	assert.Equal(t, StatePriced, o.State)

	o, err = m.Form(context.Background(), o.PartnerOrderID, "en")
	require.NoError(t, err)
	assert.Equal(t, StateFormed, o.State)
	assert.Equal(t, int64(42), o.OrderID)
	assert.Equal(t, upstream.PaymentTypeNow, o.PaymentType, "now preferred over hotel when both offered")

	o, err = m.Finish(context.Background(), o.PartnerOrderID, []upstream.Guest{{FirstName: "A", LastName: "B", IsAdult: true}})
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, o.State)
	assert.Equal(t, 1, up.finishCalls)

	err = m.ApplyTerminalStatus(context.Background(), 42, "confirmed")
	require.NoError(t, err)
	final, found, _ := store.Get(context.Background(), o.PartnerOrderID)
	require.True(t, found)
	assert.Equal(t, StateConfirmed, final.State)
}

func TestMachine_FinishIdempotent_NoDuplicateUpstreamCall(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{
		prebookResp: &upstream.PrebookResponse{BookingHash: "bh-1"},
		formResp:    &upstream.BookingFormResponse{OrderID: 42, ItemID: 7, PaymentTypes: []upstream.PaymentType{upstream.PaymentTypeNow}},
	}
	m := New(store, up)
	o, _ := m.Prebook(context.Background(), "h-abc")
	o, _ = m.Form(context.Background(), o.PartnerOrderID, "en")
	guests := []upstream.Guest{{FirstName: "A", LastName: "B", IsAdult: true}}

	_, err := m.Finish(context.Background(), o.PartnerOrderID, guests)
	require.NoError(t, err)
	_, err = m.Finish(context.Background(), o.PartnerOrderID, guests)
	require.NoError(t, err)

	assert.Equal(t, 1, up.finishCalls, "retry of finish on an already-PROCESSING order must not re-call upstream")
}

func TestMachine_WebhookDuplicateOnTerminalOrderIsNoOp(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{}
	m := New(store, up)
	_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", OrderID: 42, State: StateConfirmed})

	err := m.ApplyTerminalStatus(context.Background(), 42, "failed")
	require.NoError(t, err)
	o, _, _ := store.Get(context.Background(), "P-1")
	assert.Equal(t, StateConfirmed, o.State, "duplicate delivery on a terminal order must not change state")
}

func TestMachine_CancelLegalFromFormedProcessingConfirmed(t *testing.T) {
	for _, s := range []State{StateFormed, StateProcessing, StateConfirmed} {
		store := newMemStore()
		up := &fakeUpstreamBooking{}
		m := New(store, up)
		_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", OrderID: 42, State: s})

		o, err := m.Cancel(context.Background(), "P-1")
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, o.State)
	}
}

func TestMachine_CancelIllegalFromNew(t *testing.T) {
	store := newMemStore()
	m := New(store, &fakeUpstreamBooking{})
	_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", State: StateNew})

	_, err := m.Cancel(context.Background(), "P-1")
	require.Error(t, err)
	assert.Equal(t, upstream.KindInvalidInput, upstream.Of(err))
}

func TestMachine_SandboxRestrictionDoesNotCorruptState(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{
		finishErr: upstream.NewError(upstream.KindSandboxRestriction, "booking_finish", assertErr),
	}
	m := New(store, up)
	_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", OrderID: 42, ItemID: 7, State: StateFormed, PaymentType: upstream.PaymentTypeNow})

	_, err := m.Finish(context.Background(), "P-1", []upstream.Guest{{FirstName: "A", LastName: "B", IsAdult: true}})
	require.Error(t, err)
	assert.Equal(t, upstream.KindSandboxRestriction, upstream.Of(err))

	o, _, _ := store.Get(context.Background(), "P-1")
	assert.Equal(t, StateFormed, o.State, "state must remain unchanged after a sandbox_restriction error")
}

var assertErr = assertError{}

type assertError struct{}

func (assertError) Error() string { return "sandbox restriction" }
