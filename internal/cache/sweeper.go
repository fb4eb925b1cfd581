package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically deletes expired rows, mirroring
// internal/ratelimit's Sweeper shape (spec.md §5 "background sweepers").
type Sweeper struct {
	store    Store
	interval time.Duration
	stop     chan struct{}
}

func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval, stop: make(chan struct{})}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			n, err := s.store.SweepExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("cache sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows_deleted", n).Msg("cache sweep removed expired rows")
			}
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stop)
}
