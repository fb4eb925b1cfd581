package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

// Poller implementation of spec.md §4.7's "PROCESSING -> {CONFIRMED,
// FAILED}" fallback path (b): polls booking_status at an interval bounded
// in [2s, 5s] for a bounded total duration, transitioning to FAILED with
// kind=timeout if the budget is exhausted without a terminal status.
type Poller struct {
	machine  *Machine
	upstream UpstreamBooking
	interval time.Duration
	budget   time.Duration
}

// defaultInterval and defaultBudget satisfy spec.md §4.7's bounds: interval
// within [2s, 5s], total budget >= 5 minutes.
const (
	defaultInterval = 3 * time.Second
	defaultBudget   = 6 * time.Minute
)

func NewPoller(machine *Machine, up UpstreamBooking) *Poller {
	return &Poller{machine: machine, upstream: up, interval: defaultInterval, budget: defaultBudget}
}

// StartPoll launches Poll as a background goroutine, detached from the
// caller's request context so a poll in progress survives the HTTP response
// that triggered it. This is the liveness guarantee's second leg: a webhook
// may never arrive, but the poller still drives the order to a terminal
// state within its budget (spec.md §4.7 fallback path (b)).
func (p *Poller) StartPoll(orderID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.budget+p.interval)
		defer cancel()
		if err := p.Poll(ctx, orderID); err != nil {
			log.Warn().Err(err).Int64("order_id", orderID).Msg("booking poller finished with error")
		}
	}()
}

// Poll blocks until a terminal status is observed, the budget is exhausted,
// or ctx is cancelled — whichever comes first.
func (p *Poller) Poll(ctx context.Context, orderID int64) error {
	deadline := time.Now().Add(p.budget)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		status, err := p.upstream.BookingStatus(ctx, orderID)
		if err != nil {
			if upstream.Of(err) != upstream.KindTimeout {
				log.Warn().Err(err).Int64("order_id", orderID).Msg("booking_status poll failed, retrying")
			}
		} else if isTerminalStatus(status.Status) {
			return p.machine.ApplyTerminalStatus(ctx, orderID, status.Status)
		}

		if time.Now().After(deadline) {
			if applyErr := p.machine.ApplyTerminalStatus(ctx, orderID, "failed"); applyErr != nil {
				return applyErr
			}
			return upstream.NewError(upstream.KindTimeout, "booking.poll", errPollBudgetExhausted)
		}

		select {
		case <-ctx.Done():
			return upstream.NewError(upstream.KindTimeout, "booking.poll", ctx.Err())
		case <-ticker.C:
		}
	}
}

func isTerminalStatus(status string) bool {
	switch status {
	case "confirmed", "failed", "cancelled":
		return true
	default:
		return false
	}
}
