package search

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/distribn/hotel-gateway/internal/cache"
	"github.com/distribn/hotel-gateway/internal/resolver"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

var errSignatureNotFound = errors.New("search signature absent or expired")

// UpstreamSearch is the subset of upstream.Client the orchestrator needs.
type UpstreamSearch interface {
	RegionSearch(ctx context.Context, req upstream.RegionSearchRequest) (*upstream.RegionSearchResponse, error)
}

// CatalogueLookup is the subset of catalogue.Store the orchestrator needs.
type CatalogueLookup interface {
	LookupHotels(ctx context.Context, language string, ids []int64) (map[int64]upstream.HotelStatic, error)
}

// EnrichedHotel is one hotel in a search result, joined with whatever
// catalogue static content is available.
type EnrichedHotel struct {
	Hotel  upstream.Hotel
	Static *upstream.HotelStatic // nil when the catalogue has no coverage
}

// Result is a full search response.
type Result struct {
	Signature string
	Hotels    []EnrichedHotel
	FromCache bool
	CacheAge  time.Duration
}

// Orchestrator implements spec.md §4.6's search pipeline.
type Orchestrator struct {
	resolve   *resolver.Resolver
	cache     cache.Store
	catalogue CatalogueLookup
	upstream  UpstreamSearch
}

func New(resolve *resolver.Resolver, store cache.Store, cat CatalogueLookup, up UpstreamSearch) *Orchestrator {
	return &Orchestrator{resolve: resolve, cache: store, catalogue: cat, upstream: up}
}

// storedHotel is one element of the JSON array persisted in
// search_cache.rates_index: a hotel with its full rate objects (including
// book_hash) plus whatever static content was available at write time.
type storedHotel struct {
	Hotel  upstream.Hotel         `json:"hotel"`
	Static *upstream.HotelStatic  `json:"static,omitempty"`
}

// Search runs the full resolve -> cache -> upstream -> enrich -> write-through
// pipeline.
func (o *Orchestrator) Search(ctx context.Context, destination string, p Params, language string) (*Result, error) {
	res, err := o.resolve.Resolve(ctx, destination)
	if err != nil {
		return nil, err
	}
	p.RegionID = res.RegionID
	p.Residency = normalizeResidency(p.Residency)
	if p.Currency == "" {
		p.Currency = "USD"
	}

	sig := Signature(p)

	if entry, found, err := o.cache.GetSearch(ctx, sig); err == nil && found {
		hotels, decErr := decodeRatesIndex(entry.RatesIndex, entry.HotelIDs)
		if decErr == nil {
			if hitErr := o.cache.HitSearch(ctx, sig); hitErr != nil {
				log.Warn().Err(hitErr).Str("signature", sig).Msg("search cache hit-count update failed")
			}
			return &Result{
				Signature: sig,
				Hotels:    hotels,
				FromCache: true,
				CacheAge:  time.Since(entry.CachedAt),
			}, nil
		}
		log.Warn().Err(decErr).Str("signature", sig).Msg("search cache entry corrupt, falling through to upstream")
	}

	resp, err := o.upstream.RegionSearch(ctx, upstream.RegionSearchRequest{
		RegionID:  p.RegionID,
		CheckIn:   p.CheckIn,
		CheckOut:  p.CheckOut,
		Guests:    p.Guests,
		Currency:  p.Currency,
		Residency: p.Residency,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(resp.Hotels))
	for i, h := range resp.Hotels {
		ids[i] = h.HotelID
	}

	var staticByID map[int64]upstream.HotelStatic
	if o.catalogue != nil {
		staticByID, err = o.catalogue.LookupHotels(ctx, language, ids)
		if err != nil {
			log.Warn().Err(err).Msg("catalogue enrichment failed, returning hotels un-enriched")
			staticByID = map[int64]upstream.HotelStatic{}
		}
	} else {
		staticByID = map[int64]upstream.HotelStatic{}
	}

	hotels := make([]EnrichedHotel, len(resp.Hotels))
	stored := make([]storedHotel, len(resp.Hotels))
	for i, h := range resp.Hotels {
		eh := EnrichedHotel{Hotel: h}
		if s, ok := staticByID[h.HotelID]; ok {
			sCopy := s
			eh.Static = &sCopy
		}
		hotels[i] = eh
		stored[i] = storedHotel{Hotel: h, Static: eh.Static}
	}

	ratesIndex, err := json.Marshal(stored)
	if err != nil {
		return nil, upstream.NewError(upstream.KindInternal, "search", err)
	}
	paramsJSON, _ := json.Marshal(p)

	if writeErr := o.cache.PutSearch(ctx, cache.SearchEntry{
		Signature:  sig,
		Params:     paramsJSON,
		RegionID:   p.RegionID,
		HotelIDs:   ids,
		RatesIndex: ratesIndex,
	}); writeErr != nil {
		log.Warn().Err(writeErr).Str("signature", sig).Msg("search cache write-through failed")
	}

	return &Result{Signature: sig, Hotels: hotels, FromCache: false}, nil
}

// Paginate reads a prior search result from cache by signature and returns
// a page without re-calling upstream (spec.md §4.6 "Pagination").
func (o *Orchestrator) Paginate(ctx context.Context, signature string, page, pageSize int) (*Result, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	entry, found, err := o.cache.GetSearch(ctx, signature)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, upstream.NewError(upstream.KindNotFound, "search.paginate", errSignatureNotFound)
	}
	all, err := decodeRatesIndex(entry.RatesIndex, entry.HotelIDs)
	if err != nil {
		return nil, upstream.NewError(upstream.KindInternal, "search.paginate", err)
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return &Result{Signature: signature, Hotels: nil, FromCache: true, CacheAge: time.Since(entry.CachedAt)}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return &Result{
		Signature: signature,
		Hotels:    all[start:end],
		FromCache: true,
		CacheAge:  time.Since(entry.CachedAt),
	}, nil
}

func decodeRatesIndex(raw []byte, orderedIDs []int64) ([]EnrichedHotel, error) {
	var stored []storedHotel
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	byID := make(map[int64]storedHotel, len(stored))
	for _, s := range stored {
		byID[s.Hotel.HotelID] = s
	}
	hotels := make([]EnrichedHotel, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		s, ok := byID[id]
		if !ok {
			continue
		}
		hotels = append(hotels, EnrichedHotel{Hotel: s.Hotel, Static: s.Static})
	}
	return hotels, nil
}
