// Package cache defines the gateway's five logical TTL'd caches (spec.md
// §3/§4.4): destination, search, hotel-static, filter-values, and
// autocomplete. Store is the seam between the orchestration layers
// (resolver, search, httpapi) and whatever actually backs each table —
// Postgres alone, or Postgres behind a Redis hot-path mirror.
package cache

import (
	"context"
	"time"
)

// DestinationEntry is spec.md §3's "Destination cache entry".
type DestinationEntry struct {
	NormalizedName string
	RegionID       int
	RegionName     string
	LastVerifiedAt time.Time
	HitCount       int64
}

// SearchEntry is spec.md §3's "Search cache entry". Params is the opaque
// canonicalized search parameter object the orchestrator reconstructs a
// response from.
type SearchEntry struct {
	Signature  string
	Params     []byte // JSON-encoded canonical search params
	RegionID   int
	HotelIDs   []int64 // preserves upstream response order
	RatesIndex []byte  // JSON: array of {hotel (with min_rate, max_rate, rates[]), static}
	CachedAt   time.Time
	ExpiresAt  time.Time
	HitCount   int64
}

// HotelStaticEntry is spec.md §3's "Hotel-static cache entry", keyed by
// (hotel_id, language).
type HotelStaticEntry struct {
	HotelID   int64
	Language  string
	Data      []byte // JSON-encoded upstream.HotelStatic
	CachedAt  time.Time
	ExpiresAt time.Time
}

// FilterValuesEntry is the singleton filter-values cache row.
type FilterValuesEntry struct {
	Values    []byte
	CachedAt  time.Time
	ExpiresAt time.Time
}

// AutocompleteEntry is keyed by MD5(query, locale).
type AutocompleteEntry struct {
	QueryKey  string
	Query     string
	Locale    string
	Results   []byte
	CachedAt  time.Time
	ExpiresAt time.Time
}

// TTLs per spec.md §4.4.
const (
	SearchTTL      = 30 * time.Minute
	HotelStaticTTL = 7 * 24 * time.Hour
	FilterValuesTTL = 24 * time.Hour
	AutocompleteTTL = 24 * time.Hour
)

const filterValuesSingletonID = "singleton"

// Store is the full cache-store contract. Every Get returns (value, true)
// only if the row exists and is unexpired; an expired row is deleted as a
// side effect (spec.md §4.4 "Read contract").
type Store interface {
	GetDestination(ctx context.Context, normalizedName string) (*DestinationEntry, bool, error)
	PutDestination(ctx context.Context, e DestinationEntry) error
	TouchDestination(ctx context.Context, normalizedName string) error

	GetSearch(ctx context.Context, signature string) (*SearchEntry, bool, error)
	PutSearch(ctx context.Context, e SearchEntry) error
	HitSearch(ctx context.Context, signature string) error

	GetHotelStatic(ctx context.Context, hotelID int64, language string) (*HotelStaticEntry, bool, error)
	PutHotelStatic(ctx context.Context, e HotelStaticEntry) error

	GetFilterValues(ctx context.Context) (*FilterValuesEntry, bool, error)
	PutFilterValues(ctx context.Context, values []byte) error

	GetAutocomplete(ctx context.Context, queryKey string) (*AutocompleteEntry, bool, error)
	PutAutocomplete(ctx context.Context, e AutocompleteEntry) error

	// SweepExpired deletes rows past their expiry across all TTL'd tables
	// and returns the count removed. Best-effort; readers already check
	// expiry inline (spec.md §5).
	SweepExpired(ctx context.Context) (int64, error)
}
