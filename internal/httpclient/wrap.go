// Package httpclient provides a host-keyed token-bucket burst cap applied in
// the HTTP transport, after a request has already been admitted by the
// per-endpoint sliding-window governor. The governor alone enforces the
// contractual quota; this bucket only smooths bursts of admitted requests
// to the same host — it never changes whether the governor admits a
// request, only how admitted requests queue locally.
package httpclient

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// BurstLimiter hands out one golang.org/x/time/rate.Limiter per host.
type BurstLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewBurstLimiter creates a BurstLimiter with the given steady-state rate
// and burst size, applied independently per host.
func NewBurstLimiter(rps float64, burst int) *BurstLimiter {
	return &BurstLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (b *BurstLimiter) limiterFor(host string) *rate.Limiter {
	b.mu.RLock()
	l, ok := b.limiters[host]
	b.mu.RUnlock()
	if ok {
		return l
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.limiters[host]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(b.rps), b.burst)
	b.limiters[host] = l
	return l
}

// Wait blocks until a token for host is available or ctx is done.
func (b *BurstLimiter) Wait(ctx context.Context, host string) error {
	return b.limiterFor(host).Wait(ctx)
}

// Transport wraps an http.RoundTripper, applying the host burst cap and a
// fixed User-Agent before delegating.
type Transport struct {
	Base      http.RoundTripper
	Limiter   *BurstLimiter
	UserAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context(), req.URL.Host); err != nil {
			return nil, err
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
