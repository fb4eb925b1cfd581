// Package redisx is the optional hot-path mirror in front of the Postgres
// system-of-record (spec.md §4.4: "an optional faster read path; Postgres
// remains authoritative"). Grounded on the teacher's redis-backed cache
// wrapper pattern (read-through on miss, write-through on put), ported from
// go-redis/v8 to go-redis/v9.
package redisx

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/distribn/hotel-gateway/internal/cache"
)

// Mirror wraps a cache.Store with a Redis read-through/write-through layer.
// Redis failures never fail the call — they just fall back to next (spec.md
// §4.4: loss of the Redis tier degrades to direct-Postgres, not an outage).
type Mirror struct {
	rdb  *redis.Client
	next cache.Store
}

func New(rdb *redis.Client, next cache.Store) *Mirror {
	return &Mirror{rdb: rdb, next: next}
}

func key(parts ...string) string {
	k := "hgw:"
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

func (m *Mirror) GetDestination(ctx context.Context, normalizedName string) (*cache.DestinationEntry, bool, error) {
	k := key("dest", normalizedName)
	if raw, err := m.rdb.Get(ctx, k).Bytes(); err == nil {
		var e cache.DestinationEntry
		if json.Unmarshal(raw, &e) == nil {
			return &e, true, nil
		}
	}
	e, ok, err := m.next.GetDestination(ctx, normalizedName)
	if err == nil && ok {
		m.set(ctx, k, e, 0)
	}
	return e, ok, err
}

func (m *Mirror) PutDestination(ctx context.Context, e cache.DestinationEntry) error {
	if err := m.next.PutDestination(ctx, e); err != nil {
		return err
	}
	m.set(ctx, key("dest", e.NormalizedName), e, 0)
	return nil
}

func (m *Mirror) TouchDestination(ctx context.Context, normalizedName string) error {
	m.rdb.Del(ctx, key("dest", normalizedName))
	return m.next.TouchDestination(ctx, normalizedName)
}

func (m *Mirror) GetSearch(ctx context.Context, signature string) (*cache.SearchEntry, bool, error) {
	k := key("search", signature)
	if raw, err := m.rdb.Get(ctx, k).Bytes(); err == nil {
		var e cache.SearchEntry
		if json.Unmarshal(raw, &e) == nil {
			return &e, true, nil
		}
	}
	e, ok, err := m.next.GetSearch(ctx, signature)
	if err == nil && ok {
		m.set(ctx, k, e, time.Until(e.ExpiresAt))
	}
	return e, ok, err
}

func (m *Mirror) PutSearch(ctx context.Context, e cache.SearchEntry) error {
	if err := m.next.PutSearch(ctx, e); err != nil {
		return err
	}
	m.set(ctx, key("search", e.Signature), e, cache.SearchTTL)
	return nil
}

func (m *Mirror) HitSearch(ctx context.Context, signature string) error {
	return m.next.HitSearch(ctx, signature)
}

func (m *Mirror) GetHotelStatic(ctx context.Context, hotelID int64, language string) (*cache.HotelStaticEntry, bool, error) {
	k := key("static", language, itoa(hotelID))
	if raw, err := m.rdb.Get(ctx, k).Bytes(); err == nil {
		var e cache.HotelStaticEntry
		if json.Unmarshal(raw, &e) == nil {
			return &e, true, nil
		}
	}
	e, ok, err := m.next.GetHotelStatic(ctx, hotelID, language)
	if err == nil && ok {
		m.set(ctx, k, e, time.Until(e.ExpiresAt))
	}
	return e, ok, err
}

func (m *Mirror) PutHotelStatic(ctx context.Context, e cache.HotelStaticEntry) error {
	if err := m.next.PutHotelStatic(ctx, e); err != nil {
		return err
	}
	m.set(ctx, key("static", e.Language, itoa(e.HotelID)), e, cache.HotelStaticTTL)
	return nil
}

func (m *Mirror) GetFilterValues(ctx context.Context) (*cache.FilterValuesEntry, bool, error) {
	k := key("filters")
	if raw, err := m.rdb.Get(ctx, k).Bytes(); err == nil {
		var e cache.FilterValuesEntry
		if json.Unmarshal(raw, &e) == nil {
			return &e, true, nil
		}
	}
	e, ok, err := m.next.GetFilterValues(ctx)
	if err == nil && ok {
		m.set(ctx, k, e, time.Until(e.ExpiresAt))
	}
	return e, ok, err
}

func (m *Mirror) PutFilterValues(ctx context.Context, values []byte) error {
	if err := m.next.PutFilterValues(ctx, values); err != nil {
		return err
	}
	m.rdb.Del(ctx, key("filters"))
	return nil
}

func (m *Mirror) GetAutocomplete(ctx context.Context, queryKey string) (*cache.AutocompleteEntry, bool, error) {
	k := key("ac", queryKey)
	if raw, err := m.rdb.Get(ctx, k).Bytes(); err == nil {
		var e cache.AutocompleteEntry
		if json.Unmarshal(raw, &e) == nil {
			return &e, true, nil
		}
	}
	e, ok, err := m.next.GetAutocomplete(ctx, queryKey)
	if err == nil && ok {
		m.set(ctx, k, e, time.Until(e.ExpiresAt))
	}
	return e, ok, err
}

func (m *Mirror) PutAutocomplete(ctx context.Context, e cache.AutocompleteEntry) error {
	if err := m.next.PutAutocomplete(ctx, e); err != nil {
		return err
	}
	m.set(ctx, key("ac", e.QueryKey), e, cache.AutocompleteTTL)
	return nil
}

func (m *Mirror) SweepExpired(ctx context.Context) (int64, error) {
	// Redis entries expire on their own TTL; only Postgres needs sweeping.
	return m.next.SweepExpired(ctx)
}

func (m *Mirror) set(ctx context.Context, k string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	m.rdb.Set(ctx, k, raw, ttl)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
