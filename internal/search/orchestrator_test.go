package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distribn/hotel-gateway/internal/cache"
	"github.com/distribn/hotel-gateway/internal/resolver"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

type fakeSearchCache struct {
	cache.Store
	entries map[string]cache.SearchEntry
	hits    int
	puts    int
}

func newFakeSearchCache() *fakeSearchCache {
	return &fakeSearchCache{entries: map[string]cache.SearchEntry{}}
}

func (f *fakeSearchCache) GetSearch(ctx context.Context, signature string) (*cache.SearchEntry, bool, error) {
	e, ok := f.entries[signature]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (f *fakeSearchCache) PutSearch(ctx context.Context, e cache.SearchEntry) error {
	f.puts++
	e.CachedAt = time.Now()
	f.entries[e.Signature] = e
	return nil
}

func (f *fakeSearchCache) HitSearch(ctx context.Context, signature string) error {
	f.hits++
	return nil
}

type fakeUpstreamSearch struct {
	resp  *upstream.RegionSearchResponse
	err   error
	calls int
}

func (f *fakeUpstreamSearch) RegionSearch(ctx context.Context, req upstream.RegionSearchRequest) (*upstream.RegionSearchResponse, error) {
	f.calls++
	return f.resp, f.err
}

type fakeCatalogue struct {
	static map[int64]upstream.HotelStatic
}

func (f *fakeCatalogue) LookupHotels(ctx context.Context, language string, ids []int64) (map[int64]upstream.HotelStatic, error) {
	out := map[int64]upstream.HotelStatic{}
	for _, id := range ids {
		if s, ok := f.static[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func TestSearch_MissThenHit_SecondCallServedFromCache(t *testing.T) {
	sc := newFakeSearchCache()
	up := &fakeUpstreamSearch{resp: &upstream.RegionSearchResponse{
		Hotels: []upstream.Hotel{
			{HotelID: 1, MinRate: 100, MaxRate: 150},
			{HotelID: 2, MinRate: 80, MaxRate: 120},
		},
	}}
	cat := &fakeCatalogue{static: map[int64]upstream.HotelStatic{1: {HotelID: 1, Name: "Hotel One"}}}
	r := resolver.New(newFakeCacheForResolver(), &fakeUpstreamLookup{})
	o := New(r, sc, cat, up)

	p := baseParams()
	res1, err := o.Search(context.Background(), "2621", p, "en")
	require.NoError(t, err)
	assert.False(t, res1.FromCache)
	require.Len(t, res1.Hotels, 2)
	assert.Equal(t, "Hotel One", res1.Hotels[0].Static.Name)
	assert.Nil(t, res1.Hotels[1].Static)
	assert.Equal(t, 1, up.calls)

	res2, err := o.Search(context.Background(), "2621", p, "en")
	require.NoError(t, err)
	assert.True(t, res2.FromCache)
	assert.Equal(t, res1.Signature, res2.Signature)
	assert.Equal(t, []int64{1, 2}, hotelIDsOf(res2.Hotels))
	assert.Equal(t, 1, up.calls, "cache hit must not re-call upstream")
}

func TestPaginate_UnknownSignatureIsNotFound(t *testing.T) {
	sc := newFakeSearchCache()
	o := New(resolver.New(newFakeCacheForResolver(), &fakeUpstreamLookup{}), sc, &fakeCatalogue{}, &fakeUpstreamSearch{})
	_, err := o.Paginate(context.Background(), "missing-sig", 1, 10)
	require.Error(t, err)
	assert.Equal(t, upstream.KindNotFound, upstream.Of(err))
}

func TestPaginate_SlicesPreservingOrder(t *testing.T) {
	sc := newFakeSearchCache()
	up := &fakeUpstreamSearch{resp: &upstream.RegionSearchResponse{
		Hotels: []upstream.Hotel{{HotelID: 1}, {HotelID: 2}, {HotelID: 3}},
	}}
	o := New(resolver.New(newFakeCacheForResolver(), &fakeUpstreamLookup{}), sc, &fakeCatalogue{}, up)
	res, err := o.Search(context.Background(), "2621", baseParams(), "en")
	require.NoError(t, err)

	page, err := o.Paginate(context.Background(), res.Signature, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, hotelIDsOf(page.Hotels))
}

func hotelIDsOf(hotels []EnrichedHotel) []int64 {
	ids := make([]int64, len(hotels))
	for i, h := range hotels {
		ids[i] = h.Hotel.HotelID
	}
	return ids
}

// --- minimal resolver fakes (numeric input bypasses both) ---

type fakeCacheForResolver struct {
	cache.Store
}

func newFakeCacheForResolver() *fakeCacheForResolver { return &fakeCacheForResolver{} }

type fakeUpstreamLookup struct{}

func (f *fakeUpstreamLookup) RegionLookup(ctx context.Context, query string) ([]upstream.RegionLookupResult, error) {
	return nil, nil
}
