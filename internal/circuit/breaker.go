// Package circuit wraps sony/gobreaker into a small per-group manager so the
// upstream client can trip a breaker independently for search, content, and
// booking endpoint groups without retrying into a dependency already known
// to be down.
package circuit

import (
	"context"
	"sync"
	"time"

	cb "github.com/sony/gobreaker"
)

// Breaker wraps one gobreaker.CircuitBreaker.
type Breaker struct {
	cb *cb.CircuitBreaker
}

// New creates a Breaker named for logging/metrics purposes. It trips after 3
// consecutive failures, or after a 5% failure rate over a minimum of 20
// requests in the rolling interval — matching the teacher's ReadyToTrip
// policy in infra/breakers.
func New(name string) *Breaker {
	settings := cb.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts cb.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
	}
	return &Breaker{cb: cb.NewCircuitBreaker(settings)}
}

// Execute runs fn if the breaker allows it, recording the outcome.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// State returns the breaker's current state (closed/open/half-open).
func (b *Breaker) State() cb.State {
	return b.cb.State()
}

// Manager owns one Breaker per named endpoint group (search, content,
// booking) so a degraded group doesn't starve governor admission for
// healthy groups.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{breakers: make(map[string]*Breaker)}
}

// Group returns (creating if necessary) the Breaker for the named group.
func (m *Manager) Group(name string) *Breaker {
	m.mu.RLock()
	b, ok := m.breakers[name]
	m.mu.RUnlock()
	if ok {
		return b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[name]; ok {
		return b
	}
	b = New(name)
	m.breakers[name] = b
	return b
}

// Call executes fn through the named group's breaker, respecting ctx
// cancellation via a best-effort check before dispatch (gobreaker itself is
// not context-aware).
func (m *Manager) Call(ctx context.Context, group string, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Group(group).Execute(fn)
}
