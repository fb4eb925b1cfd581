// Package upstream is the sole adapter to the third-party hotel
// distribution B2B API. It exposes one typed operation per endpoint listed
// in spec.md §4.2, uniformly applying rate governance, circuit breaking,
// retry, and upstream-envelope error classification.
package upstream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/distribn/hotel-gateway/internal/circuit"
	"github.com/distribn/hotel-gateway/internal/httpclient"
	"github.com/distribn/hotel-gateway/internal/ratelimit"
)

// Endpoint path constants, used both as governor keys and circuit-breaker
// group discriminators. Paths mirror spec.md §4.2's operation table.
const (
	EndpointRegionSearch    = "/search/serp/region/"
	EndpointHotelIDsSearch  = "/search/serp/hotels/"
	EndpointHotelPage       = "/search/page/"
	EndpointHotelInfo       = "/content/hotel/info/"
	EndpointPrebook         = "/booking/prebook/"
	EndpointBookingForm     = "/booking/form/"
	EndpointBookingFinish   = "/booking/finish/"
	EndpointBookingStatus   = "/booking/status/"
	EndpointOrderInfo       = "/order/info/"
	EndpointOrderCancel     = "/order/cancel/"
	EndpointMulticomplete   = "/autocomplete/multicomplete/"
	EndpointFilterValues    = "/filter-values/"
	EndpointRegionLookup    = "/region/lookup/"
)

// DefaultQuotas is the table in spec.md §4.2, ready to hand to
// ratelimit.New.
func DefaultQuotas() map[string]ratelimit.Quota {
	return map[string]ratelimit.Quota{
		EndpointRegionSearch:   {RequestsAllowed: 10, Window: time.Minute, IsLimited: true},
		EndpointHotelIDsSearch: {RequestsAllowed: 150, Window: time.Minute, IsLimited: true},
		EndpointHotelPage:      {RequestsAllowed: 10, Window: time.Minute, IsLimited: true},
		EndpointHotelInfo:      {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointPrebook:        {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointBookingForm:    {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointBookingFinish:  {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointBookingStatus:  {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointOrderInfo:      {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointOrderCancel:    {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointMulticomplete:  {RequestsAllowed: 30, Window: time.Minute, IsLimited: true},
		EndpointFilterValues:   {IsLimited: false},
		EndpointRegionLookup:   {IsLimited: false},
	}
}

// endpoint operation timeouts, per spec.md §4.2.
var opTimeout = map[string]time.Duration{
	EndpointRegionSearch:   30 * time.Second,
	EndpointHotelIDsSearch: 30 * time.Second,
	EndpointHotelPage:      30 * time.Second,
	EndpointHotelInfo:      15 * time.Second,
	EndpointPrebook:        20 * time.Second,
	EndpointBookingForm:    30 * time.Second,
	EndpointBookingFinish:  30 * time.Second,
	EndpointBookingStatus:  30 * time.Second,
	EndpointOrderInfo:      15 * time.Second,
	EndpointOrderCancel:    15 * time.Second,
	EndpointMulticomplete:  15 * time.Second,
	EndpointFilterValues:   15 * time.Second,
	EndpointRegionLookup:   15 * time.Second,
}

const defaultTimeout = 15 * time.Second

// breaker groups, per SPEC_FULL.md §4.2.
var endpointGroup = map[string]string{
	EndpointRegionSearch:   "search",
	EndpointHotelIDsSearch: "search",
	EndpointHotelPage:      "search",
	EndpointHotelInfo:      "content",
	EndpointPrebook:        "booking",
	EndpointBookingForm:    "booking",
	EndpointBookingFinish:  "booking",
	EndpointBookingStatus:  "booking",
	EndpointOrderInfo:      "booking",
	EndpointOrderCancel:    "booking",
	EndpointMulticomplete:  "content",
	EndpointFilterValues:   "content",
	EndpointRegionLookup:   "content",
}

// idempotent endpoints per spec.md §4.2 ("*_search, hotel_info,
// booking_status, order_info are safely retryable"). booking_finish is
// handled specially by the caller (internal/booking), never blindly retried
// here.
var idempotentEndpoint = map[string]bool{
	EndpointRegionSearch:   true,
	EndpointHotelIDsSearch: true,
	EndpointHotelPage:      true,
	EndpointHotelInfo:      true,
	EndpointBookingStatus:  true,
	EndpointOrderInfo:      true,
}

const maxRetries = 3
const retryBaseDelay = time.Second

// Config configures a Client.
type Config struct {
	BaseURL        string // B2B transactional API
	ContentBaseURL string // static-content API
	PartnerID      string
	APIKey         string
	HTTPClient     *http.Client
}

// Client is the sole adapter to the upstream HTTP surface.
type Client struct {
	cfg      Config
	http     *http.Client
	governor *ratelimit.Governor
	breakers *circuit.Manager
	authHdr  string
}

// NewClient builds a Client wired to governor and breakers — both shared
// across all Client instances in the process so quota and breaker state is
// process-global, matching spec.md §5 ("the governor's per-endpoint state
// is the only globally mutated hot structure").
func NewClient(cfg Config, governor *ratelimit.Governor, breakers *circuit.Manager) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &httpclient.Transport{
				Limiter:   httpclient.NewBurstLimiter(20, 20),
				UserAgent: "hotel-gateway/1.0",
			},
		}
	}
	creds := cfg.PartnerID + ":" + cfg.APIKey
	return &Client{
		cfg:      cfg,
		http:     hc,
		governor: governor,
		breakers: breakers,
		authHdr:  "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
	}
}

// call performs one governed, breaker-wrapped, retried upstream call and
// unmarshals its data payload into out.
func (c *Client) call(ctx context.Context, endpoint, method, path string, body any, out any) error {
	timeout := opTimeout[endpoint]
	if timeout == 0 {
		timeout = defaultTimeout
	}
	group := endpointGroup[endpoint]
	if group == "" {
		group = "content"
	}
	retryable := idempotentEndpoint[endpoint]

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return NewError(KindTimeout, endpoint, ctx.Err())
			case <-timer.C:
			}
		}

		if err := c.governor.Admit(ctx, endpoint); err != nil {
			return NewError(KindTimeout, endpoint, fmt.Errorf("governor wait: %w", err))
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		env, err := c.doOnce(callCtx, group, endpoint, method, path, body)
		cancel()

		if err != nil {
			lastErr = err
		} else if env.Status != "ok" {
			lastErr = classifyEnvelopeError(endpoint, env)
		} else {
			if out != nil && len(env.Data) > 0 {
				if jsonErr := json.Unmarshal(env.Data, out); jsonErr != nil {
					lastErr = NewError(KindUpstreamError, endpoint, fmt.Errorf("decode data: %w", jsonErr))
				} else {
					return nil
				}
			} else {
				return nil
			}
		}

		var upErr *Error
		if e, ok := lastErr.(*Error); ok {
			upErr = e
		}
		if !retryable || upErr == nil || !upErr.IsTransient() || attempt == maxRetries {
			break
		}
		log.Warn().Str("endpoint", endpoint).Int("attempt", attempt+1).Err(lastErr).Msg("retrying transient upstream failure")
	}
	return lastErr
}

// doOnce performs a single HTTP round trip through the named circuit-breaker
// group and parses the upstream envelope. Transport-level failures (timeout,
// connection reset, non-2xx) are classified into a *Error here so both the
// retry loop and the caller see a uniform Kind.
func (c *Client) doOnce(ctx context.Context, group, endpoint, method, path string, body any) (*envelope, error) {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, NewError(KindInvalidInput, endpoint, fmt.Errorf("encode request: %w", err))
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURLFor(endpoint)+path, bodyReader)
	if err != nil {
		return nil, NewError(KindInternal, endpoint, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", c.authHdr)
	req.Header.Set("Content-Type", "application/json")

	result, err := c.breakers.Call(ctx, group, func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, NewError(KindTimeout, endpoint, err)
			}
			return nil, NewError(KindUpstreamError, endpoint, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, NewError(KindUpstreamError, endpoint, fmt.Errorf("read response: %w", err))
		}

		if resp.StatusCode >= 500 {
			return nil, NewError(KindUpstreamError, endpoint, fmt.Errorf("upstream HTTP %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return nil, NewError(KindInvalidInput, endpoint, fmt.Errorf("upstream HTTP %d", resp.StatusCode))
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, NewError(KindUpstreamError, endpoint, fmt.Errorf("decode envelope: %w", err))
		}
		return &env, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError(KindTimeout, endpoint, err)
		}
		if upErr, ok := err.(*Error); ok {
			return nil, upErr
		}
		return nil, NewError(KindUpstreamError, endpoint, err) // circuit open or other breaker error
	}
	return result.(*envelope), nil
}

// classifyEnvelopeError maps a non-"ok" envelope to a Kind per spec.md §7.
func classifyEnvelopeError(endpoint string, env *envelope) *Error {
	switch env.Error {
	case "sandbox_restriction":
		return NewError(KindSandboxRestriction, endpoint, fmt.Errorf("sandbox restriction"))
	case "quota_exceeded", "rate_limited":
		return NewError(KindQuotaExhausted, endpoint, fmt.Errorf("upstream reported rate limit despite governor compliance"))
	case "not_found":
		return NewError(KindNotFound, endpoint, fmt.Errorf("not found"))
	default:
		if env.Error == "" {
			return NewError(KindUpstreamError, endpoint, fmt.Errorf("non-ok status %q with no error detail", env.Status))
		}
		return NewError(KindUpstreamError, endpoint, fmt.Errorf("%s", env.Error))
	}
}

func (c *Client) baseURLFor(endpoint string) string {
	if endpointGroup[endpoint] == "content" {
		return c.cfg.ContentBaseURL
	}
	return c.cfg.BaseURL
}

// RegionSearch returns hotels with live rates for a region.
func (c *Client) RegionSearch(ctx context.Context, req RegionSearchRequest) (*RegionSearchResponse, error) {
	var out RegionSearchResponse
	if err := c.call(ctx, EndpointRegionSearch, http.MethodPost, EndpointRegionSearch, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HotelIDsSearch returns live rates for up to 300 explicit hotels.
func (c *Client) HotelIDsSearch(ctx context.Context, req HotelIDsSearchRequest) (*RegionSearchResponse, error) {
	var out RegionSearchResponse
	if err := c.call(ctx, EndpointHotelIDsSearch, http.MethodPost, EndpointHotelIDsSearch, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HotelPage returns single-hotel live rates plus static content.
func (c *Client) HotelPage(ctx context.Context, req HotelPageRequest) (*HotelPageResponse, error) {
	var out HotelPageResponse
	if err := c.call(ctx, EndpointHotelPage, http.MethodPost, EndpointHotelPage, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HotelInfo returns static hotel attributes.
func (c *Client) HotelInfo(ctx context.Context, hotelID int64, language string) (*HotelStatic, error) {
	var out HotelStatic
	path := fmt.Sprintf("%s%d?language=%s", EndpointHotelInfo, hotelID, language)
	if err := c.call(ctx, EndpointHotelInfo, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Prebook validates and holds a rate, returning a booking_hash.
func (c *Client) Prebook(ctx context.Context, req PrebookRequest) (*PrebookResponse, error) {
	var out PrebookResponse
	if err := c.call(ctx, EndpointPrebook, http.MethodPost, EndpointPrebook, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BookingForm returns order_id, item_id, and available payment types.
func (c *Client) BookingForm(ctx context.Context, req BookingFormRequest) (*BookingFormResponse, error) {
	var out BookingFormResponse
	if err := c.call(ctx, EndpointBookingForm, http.MethodPost, EndpointBookingForm, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BookingFinish starts the async booking. It is not retried here, and
// callers (internal/booking) must not re-issue it once the order has moved
// past FORMED — that invariant is enforced by the state machine, not here.
func (c *Client) BookingFinish(ctx context.Context, req BookingFinishRequest) (*BookingFinishResponse, error) {
	var out BookingFinishResponse
	if err := c.call(ctx, EndpointBookingFinish, http.MethodPost, EndpointBookingFinish, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BookingStatus polls the async booking outcome.
func (c *Client) BookingStatus(ctx context.Context, orderID int64) (*BookingStatusResponse, error) {
	var out BookingStatusResponse
	path := fmt.Sprintf("%s%d", EndpointBookingStatus, orderID)
	if err := c.call(ctx, EndpointBookingStatus, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderInfo fetches terminal order details.
func (c *Client) OrderInfo(ctx context.Context, orderID int64) (*OrderInfoResponse, error) {
	var out OrderInfoResponse
	path := fmt.Sprintf("%s%d", EndpointOrderInfo, orderID)
	if err := c.call(ctx, EndpointOrderInfo, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderCancel cancels an order.
func (c *Client) OrderCancel(ctx context.Context, orderID int64) (*OrderCancelResponse, error) {
	var out OrderCancelResponse
	path := fmt.Sprintf("%s%d", EndpointOrderCancel, orderID)
	if err := c.call(ctx, EndpointOrderCancel, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Multicomplete returns autocomplete suggestions for query.
func (c *Client) Multicomplete(ctx context.Context, query, language string) (*MulticompleteResponse, error) {
	var out MulticompleteResponse
	path := fmt.Sprintf("%s?q=%s&language=%s", EndpointMulticomplete, query, language)
	if err := c.call(ctx, EndpointMulticomplete, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FilterValues returns the upstream metadata filter enumeration, passed
// through without interpretation.
func (c *Client) FilterValues(ctx context.Context) (*FilterValuesResponse, error) {
	var out FilterValuesResponse
	if err := c.call(ctx, EndpointFilterValues, http.MethodGet, EndpointFilterValues, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegionLookup searches the upstream's region index for query, used by the
// destination resolver's tier-3 fallback.
func (c *Client) RegionLookup(ctx context.Context, query string) ([]RegionLookupResult, error) {
	var out []RegionLookupResult
	path := fmt.Sprintf("%s?q=%s", EndpointRegionLookup, query)
	if err := c.call(ctx, EndpointRegionLookup, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
