package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distribn/hotel-gateway/internal/booking"
	"github.com/distribn/hotel-gateway/internal/cache"
	"github.com/distribn/hotel-gateway/internal/search"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

type fakeSearcher struct {
	result *search.Result
	err    error
}

func (f *fakeSearcher) Search(ctx context.Context, destination string, p search.Params, language string) (*search.Result, error) {
	return f.result, f.err
}
func (f *fakeSearcher) Paginate(ctx context.Context, signature string, page, pageSize int) (*search.Result, error) {
	return f.result, f.err
}

type fakeBooker struct {
	order *booking.Order
	err   error
}

func (f *fakeBooker) Prebook(ctx context.Context, bookHash string) (*booking.Order, error) { return f.order, f.err }
func (f *fakeBooker) Form(ctx context.Context, partnerOrderID, language string) (*booking.Order, error) {
	return f.order, f.err
}
func (f *fakeBooker) Finish(ctx context.Context, partnerOrderID string, guests []upstream.Guest) (*booking.Order, error) {
	return f.order, f.err
}
func (f *fakeBooker) Status(ctx context.Context, partnerOrderID string) (*booking.Order, error) {
	return f.order, f.err
}
func (f *fakeBooker) Cancel(ctx context.Context, partnerOrderID string) (*booking.Order, error) {
	return f.order, f.err
}
func (f *fakeBooker) ApplyTerminalStatus(ctx context.Context, orderID int64, status string) error {
	return f.err
}

type fakeContent struct{}

func (fakeContent) HotelPage(ctx context.Context, req upstream.HotelPageRequest) (*upstream.HotelPageResponse, error) {
	return &upstream.HotelPageResponse{}, nil
}
func (fakeContent) HotelInfo(ctx context.Context, hotelID int64, language string) (*upstream.HotelStatic, error) {
	return &upstream.HotelStatic{HotelID: hotelID}, nil
}
func (fakeContent) FilterValues(ctx context.Context) (*upstream.FilterValuesResponse, error) {
	return &upstream.FilterValuesResponse{Values: json.RawMessage(`{"a":1}`)}, nil
}
func (fakeContent) Multicomplete(ctx context.Context, query, locale string) (*upstream.MulticompleteResponse, error) {
	return &upstream.MulticompleteResponse{}, nil
}

type fakePoller struct {
	startedOrderID int64
	started        bool
}

func (f *fakePoller) StartPoll(orderID int64) {
	f.started = true
	f.startedOrderID = orderID
}

type fakeCache struct {
	cache.Store
}

func (fakeCache) GetHotelStatic(ctx context.Context, hotelID int64, language string) (*cache.HotelStaticEntry, bool, error) {
	return nil, false, nil
}
func (fakeCache) PutHotelStatic(ctx context.Context, e cache.HotelStaticEntry) error { return nil }
func (fakeCache) GetFilterValues(ctx context.Context) (*cache.FilterValuesEntry, bool, error) {
	return nil, false, nil
}
func (fakeCache) PutFilterValues(ctx context.Context, values []byte) error { return nil }

func newTestServer(searcher Searcher, booker Booker) *Server {
	return &Server{
		Search:   searcher,
		Booking:  booker,
		Content:  fakeContent{},
		Cache:    fakeCache{},
		Deadline: 5 * time.Second,
	}
}

func TestHandleSearch_MissingDestination(t *testing.T) {
	s := newTestServer(&fakeSearcher{}, &fakeBooker{})
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"guests":[{"adults":2,"children":[]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "invalid-input", env.Error.Code)
}

func TestHandleSearch_Success(t *testing.T) {
	s := newTestServer(&fakeSearcher{result: &search.Result{Signature: "sig-1", Hotels: []search.EnrichedHotel{{Hotel: upstream.Hotel{HotelID: 1}}}}}, &fakeBooker{})
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"destination":"New York","checkin":"2025-07-15","checkout":"2025-07-17","guests":[{"adults":2,"children":[]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Meta.RequestID)
}

func TestHandleSearch_SandboxRestrictionReturns200(t *testing.T) {
	s := newTestServer(&fakeSearcher{err: upstream.NewError(upstream.KindSandboxRestriction, "region_search", assertSandboxErr)}, &fakeBooker{})
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"destination":"New York","checkin":"2025-07-15","checkout":"2025-07-17","guests":[{"adults":2,"children":[]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.True(t, env.Meta.SandboxRestricted)
}

func TestHandleWebhook_AlwaysReturns200(t *testing.T) {
	s := newTestServer(&fakeSearcher{}, &fakeBooker{err: assertSandboxErr})
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"order_id":42,"status":"confirmed"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/booking-status", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleOrderFinish_ProcessingStartsPoller(t *testing.T) {
	order := &booking.Order{PartnerOrderID: "P-1", OrderID: 42, State: booking.StateProcessing}
	s := newTestServer(&fakeSearcher{}, &fakeBooker{order: order})
	poller := &fakePoller{}
	s.Poller = poller
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"partner_order_id":"P-1","guests":[{"first_name":"A","last_name":"B","is_adult":true}]}`)
	req := httptest.NewRequest(http.MethodPost, "/order/finish", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, poller.started, "a PROCESSING order must start the background poller fallback")
	assert.Equal(t, int64(42), poller.startedOrderID)
}

func TestHandleOrderFinish_NonProcessingDoesNotStartPoller(t *testing.T) {
	order := &booking.Order{PartnerOrderID: "P-1", OrderID: 42, State: booking.StateFormed}
	s := newTestServer(&fakeSearcher{}, &fakeBooker{order: order})
	poller := &fakePoller{}
	s.Poller = poller
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"partner_order_id":"P-1","guests":[{"first_name":"A","last_name":"B","is_adult":true}]}`)
	req := httptest.NewRequest(http.MethodPost, "/order/finish", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, poller.started)
}

func TestHandleOrderStatus_ReturnsPersistedState(t *testing.T) {
	order := &booking.Order{PartnerOrderID: "P-1", OrderID: 42, State: booking.StateProcessing}
	s := newTestServer(&fakeSearcher{}, &fakeBooker{order: order})
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"partner_order_id":"P-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/order/status", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"State":"PROCESSING"`)
}

func TestHandleOrderStatus_MissingPartnerOrderID(t *testing.T) {
	s := newTestServer(&fakeSearcher{}, &fakeBooker{})
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/order/status", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleOrderStatus_NotFound(t *testing.T) {
	s := newTestServer(&fakeSearcher{}, &fakeBooker{err: upstream.NewError(upstream.KindNotFound, "booking.status", assertSandboxErr)})
	router := s.NewRouter(nil)

	body := bytes.NewBufferString(`{"partner_order_id":"P-missing"}`)
	req := httptest.NewRequest(http.MethodPost, "/order/status", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleHealthz(t *testing.T) {
	s := newTestServer(&fakeSearcher{}, &fakeBooker{})
	router := s.NewRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

type sandboxErr struct{}

func (sandboxErr) Error() string { return "sandbox" }

var assertSandboxErr = sandboxErr{}
