package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/distribn/hotel-gateway/internal/booking"
	"github.com/distribn/hotel-gateway/internal/cache"
	"github.com/distribn/hotel-gateway/internal/search"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

// Searcher is the subset of *search.Orchestrator the handlers need.
type Searcher interface {
	Search(ctx context.Context, destination string, p search.Params, language string) (*search.Result, error)
	Paginate(ctx context.Context, signature string, page, pageSize int) (*search.Result, error)
}

// Booker is the subset of *booking.Machine the handlers need.
type Booker interface {
	Prebook(ctx context.Context, bookHash string) (*booking.Order, error)
	Form(ctx context.Context, partnerOrderID, language string) (*booking.Order, error)
	Finish(ctx context.Context, partnerOrderID string, guests []upstream.Guest) (*booking.Order, error)
	Status(ctx context.Context, partnerOrderID string) (*booking.Order, error)
	Cancel(ctx context.Context, partnerOrderID string) (*booking.Order, error)
	ApplyTerminalStatus(ctx context.Context, orderID int64, status string) error
}

// UpstreamContent is the subset of *upstream.Client content/metadata
// handlers need directly (hotel page/info, filters, autocomplete — routes
// with no orchestration beyond cache-or-upstream).
type UpstreamContent interface {
	HotelPage(ctx context.Context, req upstream.HotelPageRequest) (*upstream.HotelPageResponse, error)
	HotelInfo(ctx context.Context, hotelID int64, language string) (*upstream.HotelStatic, error)
	FilterValues(ctx context.Context) (*upstream.FilterValuesResponse, error)
	Multicomplete(ctx context.Context, query, locale string) (*upstream.MulticompleteResponse, error)
}

// Poller is the background fallback that drives a PROCESSING order to a
// terminal state if no webhook ever arrives (spec.md §4.7 fallback path (b)).
// Optional: a Server with a nil Poller still serves every route, it simply
// relies on the webhook alone to terminate PROCESSING orders.
type Poller interface {
	StartPoll(orderID int64)
}

// Server wires every dependency the public routes need.
type Server struct {
	Search   Searcher
	Booking  Booker
	Content  UpstreamContent
	Cache    cache.Store
	Registry MetricsRegistry
	Poller   Poller
	Deadline time.Duration
}

// MetricsRegistry is the narrow surface internal/metrics exposes to
// internal/httpapi, kept as an interface so handlers stay testable without
// a live Prometheus registry.
type MetricsRegistry interface {
	ObserveRequest(route string, status int, duration time.Duration)
	ObserveBookingTransition(toState string)
}

// NewRouter builds the full gorilla/mux router with the ambient middleware
// chain applied (spec.md §6's route table plus the ambient /healthz and
// /metrics additions).
func (s *Server) NewRouter(metricsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware, corsMiddleware, jsonContentTypeMiddleware, timeoutMiddleware(s.Deadline))

	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/hotel/details", s.handleHotelDetails).Methods(http.MethodPost)
	r.HandleFunc("/hotel/static-info", s.handleHotelStaticInfo).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/hotel/static-info/{hid}", s.handleHotelStaticInfo).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/filter-values", s.handleFilterValues).Methods(http.MethodGet)
	r.HandleFunc("/prebook", s.handlePrebook).Methods(http.MethodPost)
	r.HandleFunc("/order/form", s.handleOrderForm).Methods(http.MethodPost)
	r.HandleFunc("/order/finish", s.handleOrderFinish).Methods(http.MethodPost)
	r.HandleFunc("/order/status", s.handleOrderStatus).Methods(http.MethodPost)
	r.HandleFunc("/order/cancel", s.handleOrderCancel).Methods(http.MethodPost)
	r.HandleFunc("/webhook/booking-status", s.handleWebhook).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}
	return r
}
