// Package catalogue is the long-lived hotel reference store (spec.md §3
// "Catalogue hotel record" / §4.3): static content the gateway has already
// fetched, independent of search-cache TTLs, used to enrich live rate
// results. It also offers a name-based region lookup (LookupRegionByName),
// which internal/resolver does not call.
package catalogue

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

// Store is grounded on the teacher's sqlx repo pattern: one *sqlx.DB, plain
// SQL, no ORM (internal/persistence/postgres/trades_repo.go).
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type hotelRow struct {
	HotelID     int64   `db:"hotel_id"`
	Language    string  `db:"language"`
	Name        string  `db:"name"`
	Address     string  `db:"address"`
	City        string  `db:"city"`
	Country     string  `db:"country"`
	StarRating  float64 `db:"star_rating"`
	Latitude    float64 `db:"latitude"`
	Longitude   float64 `db:"longitude"`
	Data        []byte  `db:"data"` // full JSON-encoded upstream.HotelStatic, for fields not broken out
}

// LookupHotels resolves a batch of hotel ids to their catalogued static
// record in one round trip. Ids with no catalogue coverage are simply
// absent from the result map — callers must tolerate partial coverage
// (spec.md §4.3 "must tolerate partial/missing catalogue coverage without
// failing the caller").
func (s *Store) LookupHotels(ctx context.Context, language string, ids []int64) (map[int64]upstream.HotelStatic, error) {
	if len(ids) == 0 {
		return map[int64]upstream.HotelStatic{}, nil
	}
	var rows []hotelRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT hotel_id, language, name, address, city, country, star_rating, latitude, longitude, data
		FROM hotel_catalogue WHERE hotel_id = ANY($1) AND language = $2`,
		pq.Array(ids), language)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]upstream.HotelStatic, len(rows))
	for _, r := range rows {
		hs := upstream.HotelStatic{
			HotelID: r.HotelID, Language: r.Language, Name: r.Name, Address: r.Address,
			City: r.City, Country: r.Country, StarRating: r.StarRating,
			Latitude: r.Latitude, Longitude: r.Longitude,
		}
		hs.Raw = r.Data
		out[r.HotelID] = hs
	}
	return out, nil
}

// Upsert writes a single hotel's static content into the catalogue. No
// code path in the gateway calls it.
func (s *Store) Upsert(ctx context.Context, h upstream.HotelStatic) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hotel_catalogue (hotel_id, language, name, address, city, country, star_rating, latitude, longitude, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (hotel_id, language) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, city = EXCLUDED.city,
			country = EXCLUDED.country, star_rating = EXCLUDED.star_rating,
			latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			data = EXCLUDED.data, updated_at = now()`,
		h.HotelID, h.Language, h.Name, h.Address, h.City, h.Country, h.StarRating,
		h.Latitude, h.Longitude, []byte(h.Raw))
	return err
}

// RegionCandidate is one name-match result from LookupRegionByName.
type RegionCandidate struct {
	RegionID int    `db:"region_id"`
	Name     string `db:"region_name"`
	Country  string `db:"country"`
}

// LookupRegionByName performs a case-insensitive substring match against
// region_catalogue names, returning at most 10 candidates ordered by name.
// internal/resolver does not use it; its tiers are the static map, the
// destination cache and upstream region_lookup.
func (s *Store) LookupRegionByName(ctx context.Context, query string) ([]RegionCandidate, error) {
	var rows []RegionCandidate
	err := s.db.SelectContext(ctx, &rows, `
		SELECT DISTINCT region_id, region_name, country FROM region_catalogue
		WHERE region_name ILIKE '%' || $1 || '%' ORDER BY region_name LIMIT 10`, query)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertRegion records a region in region_catalogue, the table
// LookupRegionByName searches. No code path in the gateway calls it.
func (s *Store) UpsertRegion(ctx context.Context, regionID int, name, country string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO region_catalogue (region_id, region_name, country)
		VALUES ($1, $2, $3)
		ON CONFLICT (region_id) DO UPDATE SET region_name = EXCLUDED.region_name, country = EXCLUDED.country`,
		regionID, name, country)
	return err
}
