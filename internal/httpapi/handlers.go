package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/distribn/hotel-gateway/internal/booking"
	"github.com/distribn/hotel-gateway/internal/cache"
	"github.com/distribn/hotel-gateway/internal/search"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

func decodeRequest(r *http.Request, v any) error {
	if r.Method == http.MethodGet {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return upstream.NewError(upstream.KindInvalidInput, "decode", err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	kind := upstream.Of(err)
	meta := newMeta(requestIDFrom(r.Context()), start)

	if kind == upstream.KindSandboxRestriction {
		meta.SandboxRestricted = true
		s.writeJSON(w, http.StatusOK, Envelope{Success: true, Meta: meta})
		return
	}

	status := statusFor(kind)
	s.writeJSON(w, status, Envelope{
		Success: false,
		Meta:    meta,
		Error:   &ErrorBody{Message: err.Error(), Code: string(kind)},
	})
	if s.Registry != nil {
		s.Registry.ObserveRequest(r.URL.Path, status, time.Since(start))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("failed to encode response envelope")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req searchRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Destination = q.Get("destination")
		req.CheckIn = q.Get("checkin")
		req.CheckOut = q.Get("checkout")
		req.Currency = q.Get("currency")
		req.Residency = q.Get("residency")
		req.Signature = q.Get("signature")
		req.Language = q.Get("language")
		req.Page, _ = strconv.Atoi(q.Get("page"))
		req.PageSize, _ = strconv.Atoi(q.Get("page_size"))
		req.Guests = json.RawMessage(q.Get("guests"))
	} else if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, r, start, err)
		return
	}

	if req.Signature != "" {
		res, err := s.Search.Paginate(r.Context(), req.Signature, req.Page, req.PageSize)
		if err != nil {
			s.writeError(w, r, start, err)
			return
		}
		s.writeSearchResult(w, r, start, res)
		return
	}

	if req.Destination == "" {
		s.writeError(w, r, start, upstream.NewError(upstream.KindInvalidInput, "search", errMissingDest))
		return
	}
	guests, err := parseGuests(req.Guests)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}

	res, err := s.Search.Search(r.Context(), req.Destination, search.Params{
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests:    guests,
		Currency:  req.Currency,
		Residency: req.Residency,
	}, req.Language)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	s.writeSearchResult(w, r, start, res)
}

func (s *Server) writeSearchResult(w http.ResponseWriter, r *http.Request, start time.Time, res *search.Result) {
	meta := newMeta(requestIDFrom(r.Context()), start)
	meta.FromCache = res.FromCache
	if res.FromCache {
		meta.CacheAgeMS = res.CacheAge.Milliseconds()
	}
	s.writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: map[string]any{
			"signature": res.Signature,
		},
		Hotels: res.Hotels,
		Meta:   meta,
	})
}

func (s *Server) handleHotelDetails(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req struct {
		HotelID   int64           `json:"hotel_id"`
		CheckIn   string          `json:"checkin"`
		CheckOut  string          `json:"checkout"`
		Guests    json.RawMessage `json:"guests"`
		Currency  string          `json:"currency"`
		Residency string          `json:"residency"`
	}
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, r, start, err)
		return
	}
	guests, err := parseGuests(req.Guests)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	resp, err := s.Content.HotelPage(r.Context(), upstream.HotelPageRequest{
		HotelID: req.HotelID, CheckIn: req.CheckIn, CheckOut: req.CheckOut,
		Guests: guests, Currency: req.Currency, Residency: req.Residency,
	})
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Hotel: resp, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handleHotelStaticInfo(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	hid := mux.Vars(r)["hid"]
	if hid == "" {
		if r.Method == http.MethodGet {
			hid = r.URL.Query().Get("hotel_id")
		} else {
			var req struct {
				HotelID int64 `json:"hotel_id"`
			}
			if err := decodeRequest(r, &req); err == nil && req.HotelID != 0 {
				hid = strconv.FormatInt(req.HotelID, 10)
			}
		}
	}
	hotelID, err := strconv.ParseInt(hid, 10, 64)
	if err != nil {
		s.writeError(w, r, start, upstream.NewError(upstream.KindInvalidInput, "hotel.static-info", err))
		return
	}
	language := r.URL.Query().Get("language")
	if language == "" {
		language = "en"
	}

	if entry, found, cerr := s.Cache.GetHotelStatic(r.Context(), hotelID, language); cerr == nil && found {
		var hs upstream.HotelStatic
		if json.Unmarshal(entry.Data, &hs) == nil {
			meta := newMeta(requestIDFrom(r.Context()), start)
			meta.FromCache = true
			meta.CacheAgeMS = time.Since(entry.CachedAt).Milliseconds()
			s.writeJSON(w, http.StatusOK, Envelope{Success: true, Hotel: hs, Meta: meta})
			return
		}
	}

	hs, err := s.Content.HotelInfo(r.Context(), hotelID, language)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	if data, merr := json.Marshal(hs); merr == nil {
		if perr := s.Cache.PutHotelStatic(r.Context(), cache.HotelStaticEntry{HotelID: hotelID, Language: language, Data: data}); perr != nil {
			log.Warn().Err(perr).Msg("hotel static cache write-through failed")
		}
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Hotel: hs, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handleFilterValues(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	if entry, found, err := s.Cache.GetFilterValues(r.Context()); err == nil && found {
		meta := newMeta(requestIDFrom(r.Context()), start)
		meta.FromCache = true
		meta.CacheAgeMS = time.Since(entry.CachedAt).Milliseconds()
		s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: json.RawMessage(entry.Values), Meta: meta})
		return
	}
	resp, err := s.Content.FilterValues(r.Context())
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	if perr := s.Cache.PutFilterValues(r.Context(), resp.Values); perr != nil {
		log.Warn().Err(perr).Msg("filter values cache write-through failed")
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: resp.Values, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handlePrebook(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req struct {
		BookHash string `json:"book_hash"`
	}
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, r, start, err)
		return
	}
	if req.BookHash == "" {
		s.writeError(w, r, start, upstream.NewError(upstream.KindInvalidInput, "prebook", errMissingHash))
		return
	}
	order, err := s.Booking.Prebook(r.Context(), req.BookHash)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: order, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handleOrderForm(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req struct {
		PartnerOrderID string `json:"partner_order_id"`
		Language       string `json:"language"`
	}
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, r, start, err)
		return
	}
	order, err := s.Booking.Form(r.Context(), req.PartnerOrderID, req.Language)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	if s.Registry != nil {
		s.Registry.ObserveBookingTransition(string(order.State))
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: order, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handleOrderFinish(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req struct {
		PartnerOrderID string            `json:"partner_order_id"`
		Guests         []upstream.Guest  `json:"guests"`
	}
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, r, start, err)
		return
	}
	order, err := s.Booking.Finish(r.Context(), req.PartnerOrderID, req.Guests)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	if s.Registry != nil {
		s.Registry.ObserveBookingTransition(string(order.State))
	}
	if order.State == booking.StateProcessing && s.Poller != nil {
		// The webhook is the primary path to a terminal state; this poller
		// run is the liveness fallback if it never arrives.
		s.Poller.StartPoll(order.OrderID)
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: order, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req struct {
		PartnerOrderID string `json:"partner_order_id"`
	}
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, r, start, err)
		return
	}
	if req.PartnerOrderID == "" {
		s.writeError(w, r, start, upstream.NewError(upstream.KindInvalidInput, "order.status", errMissingPartnerOrderID))
		return
	}
	// order/status returns whatever state is currently persisted; polling
	// to a terminal state is driven by the background poller / webhook,
	// not synchronously inside this handler (spec.md §5 suspension points).
	order, err := s.Booking.Status(r.Context(), req.PartnerOrderID)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: order, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req struct {
		PartnerOrderID string `json:"partner_order_id"`
	}
	if err := decodeRequest(r, &req); err != nil {
		s.writeError(w, r, start, err)
		return
	}
	order, err := s.Booking.Cancel(r.Context(), req.PartnerOrderID)
	if err != nil {
		s.writeError(w, r, start, err)
		return
	}
	if s.Registry != nil {
		s.Registry.ObserveBookingTransition(string(order.State))
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: order, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

// handleWebhook always responds 200 after logging, even on processing
// failure, so the upstream does not retry for gateway-internal problems
// (spec.md §6).
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := startFrom(r.Context())
	var req struct {
		OrderID int64  `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := decodeRequest(r, &req); err != nil {
		log.Warn().Err(err).Msg("webhook: malformed body")
		s.writeJSON(w, http.StatusOK, Envelope{Success: true, Meta: newMeta(requestIDFrom(r.Context()), start)})
		return
	}
	if err := s.Booking.ApplyTerminalStatus(r.Context(), req.OrderID, req.Status); err != nil {
		log.Warn().Err(err).Int64("order_id", req.OrderID).Msg("webhook: terminal status application failed")
	} else if s.Registry != nil {
		s.Registry.ObserveBookingTransition(req.Status)
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Meta: newMeta(requestIDFrom(r.Context()), start)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
