package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

func TestPoller_Poll_TerminalStatusAppliesAndReturnsNil(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{statusResp: &upstream.BookingStatusResponse{Status: "confirmed"}}
	m := New(store, up)
	_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", OrderID: 99, State: StateProcessing})

	p := NewPoller(m, up)
	p.interval = time.Millisecond
	p.budget = 50 * time.Millisecond

	err := p.Poll(context.Background(), 99)
	require.NoError(t, err)

	o, _, _ := store.Get(context.Background(), "P-1")
	assert.Equal(t, StateConfirmed, o.State)
}

func TestPoller_Poll_BudgetExhaustedTransitionsFailedWithTimeoutKind(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{statusResp: &upstream.BookingStatusResponse{Status: "processing"}}
	m := New(store, up)
	_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", OrderID: 99, State: StateProcessing})

	p := NewPoller(m, up)
	p.interval = time.Millisecond
	p.budget = 5 * time.Millisecond

	err := p.Poll(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, upstream.KindTimeout, upstream.Of(err))

	o, _, _ := store.Get(context.Background(), "P-1")
	assert.Equal(t, StateFailed, o.State, "budget exhaustion must transition the order to FAILED")
}

func TestPoller_Poll_CtxCancelledReturnsTimeoutKind(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{statusResp: &upstream.BookingStatusResponse{Status: "processing"}}
	m := New(store, up)
	_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", OrderID: 99, State: StateProcessing})

	p := NewPoller(m, up)
	p.interval = 50 * time.Millisecond
	p.budget = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Poll(ctx, 99)
	require.Error(t, err)
	assert.Equal(t, upstream.KindTimeout, upstream.Of(err))
}

func TestPoller_StartPoll_RunsInBackgroundAndCompletes(t *testing.T) {
	store := newMemStore()
	up := &fakeUpstreamBooking{statusResp: &upstream.BookingStatusResponse{Status: "cancelled"}}
	m := New(store, up)
	_ = store.Create(context.Background(), Order{PartnerOrderID: "P-1", OrderID: 99, State: StateProcessing})

	p := NewPoller(m, up)
	p.interval = time.Millisecond
	p.budget = 20 * time.Millisecond

	p.StartPoll(99)

	assert.Eventually(t, func() bool {
		o, _, _ := store.Get(context.Background(), "P-1")
		return o != nil && o.State == StateCancelled
	}, time.Second, time.Millisecond, "background poll must eventually apply the terminal status")
}
