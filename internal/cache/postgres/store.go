// Package postgres is the system-of-record implementation of cache.Store,
// grounded on the teacher's sqlx/lib-pq persistence-repo pattern
// (one *sqlx.DB, one struct per logical table, explicit SQL per method —
// no ORM).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/distribn/hotel-gateway/internal/cache"
)

// Store is a Postgres-backed cache.Store.
type Store struct {
	db *sqlx.DB
}

// New wraps an already-connected *sqlx.DB. Schema is created out of band
// from schema.sql, mirroring the teacher's migration-free approach
// of shipping DDL alongside the repo rather than through a migration tool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetDestination(ctx context.Context, normalizedName string) (*cache.DestinationEntry, bool, error) {
	var row struct {
		NormalizedName string    `db:"normalized_name"`
		RegionID       int       `db:"region_id"`
		RegionName     string    `db:"region_name"`
		LastVerifiedAt time.Time `db:"last_verified_at"`
		HitCount       int64     `db:"hit_count"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT normalized_name, region_id, region_name, last_verified_at, hit_count
		 FROM destination_cache WHERE normalized_name = $1`, normalizedName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &cache.DestinationEntry{
		NormalizedName: row.NormalizedName,
		RegionID:       row.RegionID,
		RegionName:     row.RegionName,
		LastVerifiedAt: row.LastVerifiedAt,
		HitCount:       row.HitCount,
	}, true, nil
}

func (s *Store) PutDestination(ctx context.Context, e cache.DestinationEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO destination_cache (normalized_name, region_id, region_name, last_verified_at, hit_count)
		VALUES ($1, $2, $3, now(), 0)
		ON CONFLICT (normalized_name) DO UPDATE
		SET region_id = EXCLUDED.region_id, region_name = EXCLUDED.region_name, last_verified_at = now()`,
		e.NormalizedName, e.RegionID, e.RegionName)
	return err
}

func (s *Store) TouchDestination(ctx context.Context, normalizedName string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE destination_cache SET last_verified_at = now(), hit_count = hit_count + 1
		WHERE normalized_name = $1`, normalizedName)
	return err
}

func (s *Store) GetSearch(ctx context.Context, signature string) (*cache.SearchEntry, bool, error) {
	var row struct {
		Signature  string    `db:"signature"`
		Params     []byte    `db:"params"`
		RegionID   int       `db:"region_id"`
		HotelIDs   pq.Int64Array `db:"hotel_ids"`
		RatesIndex []byte    `db:"rates_index"`
		CachedAt   time.Time `db:"cached_at"`
		ExpiresAt  time.Time `db:"expires_at"`
		HitCount   int64     `db:"hit_count"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT signature, params, region_id, hotel_ids, rates_index, cached_at, expires_at, hit_count
		FROM search_cache WHERE signature = $1`, signature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(row.ExpiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM search_cache WHERE signature = $1`, signature)
		return nil, false, nil
	}
	return &cache.SearchEntry{
		Signature:  row.Signature,
		Params:     row.Params,
		RegionID:   row.RegionID,
		HotelIDs:   []int64(row.HotelIDs),
		RatesIndex: row.RatesIndex,
		CachedAt:   row.CachedAt,
		ExpiresAt:  row.ExpiresAt,
		HitCount:   row.HitCount,
	}, true, nil
}

func (s *Store) PutSearch(ctx context.Context, e cache.SearchEntry) error {
	expiresAt := time.Now().Add(cache.SearchTTL)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_cache (signature, params, region_id, hotel_ids, rates_index, cached_at, expires_at, hit_count)
		VALUES ($1, $2, $3, $4, $5, now(), $6, 0)
		ON CONFLICT (signature) DO UPDATE
		SET params = EXCLUDED.params, region_id = EXCLUDED.region_id, hotel_ids = EXCLUDED.hotel_ids,
		    rates_index = EXCLUDED.rates_index, cached_at = now(), expires_at = EXCLUDED.expires_at`,
		e.Signature, e.Params, e.RegionID, pq.Array(e.HotelIDs), e.RatesIndex, expiresAt)
	return err
}

func (s *Store) HitSearch(ctx context.Context, signature string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE search_cache SET hit_count = hit_count + 1 WHERE signature = $1`, signature)
	return err
}

func (s *Store) GetHotelStatic(ctx context.Context, hotelID int64, language string) (*cache.HotelStaticEntry, bool, error) {
	var row struct {
		HotelID   int64     `db:"hotel_id"`
		Language  string    `db:"language"`
		Data      []byte    `db:"data"`
		CachedAt  time.Time `db:"cached_at"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT hotel_id, language, data, cached_at, expires_at
		FROM hotel_static_cache WHERE hotel_id = $1 AND language = $2`, hotelID, language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(row.ExpiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM hotel_static_cache WHERE hotel_id = $1 AND language = $2`, hotelID, language)
		return nil, false, nil
	}
	return &cache.HotelStaticEntry{
		HotelID: row.HotelID, Language: row.Language, Data: row.Data,
		CachedAt: row.CachedAt, ExpiresAt: row.ExpiresAt,
	}, true, nil
}

func (s *Store) PutHotelStatic(ctx context.Context, e cache.HotelStaticEntry) error {
	expiresAt := time.Now().Add(cache.HotelStaticTTL)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hotel_static_cache (hotel_id, language, data, cached_at, expires_at)
		VALUES ($1, $2, $3, now(), $4)
		ON CONFLICT (hotel_id, language) DO UPDATE
		SET data = EXCLUDED.data, cached_at = now(), expires_at = EXCLUDED.expires_at`,
		e.HotelID, e.Language, e.Data, expiresAt)
	return err
}

func (s *Store) GetFilterValues(ctx context.Context) (*cache.FilterValuesEntry, bool, error) {
	var row struct {
		Values    []byte    `db:"values"`
		CachedAt  time.Time `db:"cached_at"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT values, cached_at, expires_at FROM filter_values_cache WHERE id = 'singleton'`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(row.ExpiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM filter_values_cache WHERE id = 'singleton'`)
		return nil, false, nil
	}
	return &cache.FilterValuesEntry{Values: row.Values, CachedAt: row.CachedAt, ExpiresAt: row.ExpiresAt}, true, nil
}

func (s *Store) PutFilterValues(ctx context.Context, values []byte) error {
	expiresAt := time.Now().Add(cache.FilterValuesTTL)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO filter_values_cache (id, values, cached_at, expires_at)
		VALUES ('singleton', $1, now(), $2)
		ON CONFLICT (id) DO UPDATE SET values = EXCLUDED.values, cached_at = now(), expires_at = EXCLUDED.expires_at`,
		values, expiresAt)
	return err
}

func (s *Store) GetAutocomplete(ctx context.Context, queryKey string) (*cache.AutocompleteEntry, bool, error) {
	var row struct {
		QueryKey  string    `db:"query_key"`
		Query     string    `db:"query"`
		Locale    string    `db:"locale"`
		Results   []byte    `db:"results"`
		CachedAt  time.Time `db:"cached_at"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT query_key, query, locale, results, cached_at, expires_at
		FROM autocomplete_cache WHERE query_key = $1`, queryKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(row.ExpiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM autocomplete_cache WHERE query_key = $1`, queryKey)
		return nil, false, nil
	}
	return &cache.AutocompleteEntry{
		QueryKey: row.QueryKey, Query: row.Query, Locale: row.Locale, Results: row.Results,
		CachedAt: row.CachedAt, ExpiresAt: row.ExpiresAt,
	}, true, nil
}

func (s *Store) PutAutocomplete(ctx context.Context, e cache.AutocompleteEntry) error {
	expiresAt := time.Now().Add(cache.AutocompleteTTL)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO autocomplete_cache (query_key, query, locale, results, cached_at, expires_at)
		VALUES ($1, $2, $3, $4, now(), $5)
		ON CONFLICT (query_key) DO UPDATE
		SET results = EXCLUDED.results, cached_at = now(), expires_at = EXCLUDED.expires_at`,
		e.QueryKey, e.Query, e.Locale, e.Results, expiresAt)
	return err
}

func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"search_cache", "hotel_static_cache", "filter_values_cache", "autocomplete_cache"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE expires_at < now()`)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
