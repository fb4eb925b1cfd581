package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

func baseParams() Params {
	return Params{
		RegionID: 2621,
		CheckIn:  "2025-07-15",
		CheckOut: "2025-07-17",
		Guests:   []upstream.Room{{Adults: 2, ChildAges: nil}},
		Currency: "USD",
	}
}

func TestSignature_ResidencyExcluded(t *testing.T) {
	a := baseParams()
	a.Residency = "us"
	b := baseParams()
	b.Residency = "en-us"
	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_CurrencyChangesDigest(t *testing.T) {
	a := baseParams()
	b := baseParams()
	b.Currency = "EUR"
	assert.NotEqual(t, Signature(a), Signature(b))
}

func TestSignature_DeterministicAcrossCalls(t *testing.T) {
	p := baseParams()
	assert.Equal(t, Signature(p), Signature(p))
}

func TestSignature_RoomOrderMatters(t *testing.T) {
	a := baseParams()
	a.Guests = []upstream.Room{{Adults: 2}, {Adults: 1}}
	b := baseParams()
	b.Guests = []upstream.Room{{Adults: 1}, {Adults: 2}}
	assert.NotEqual(t, Signature(a), Signature(b))
}

func TestNormalizeResidency_StripsLocalePrefix(t *testing.T) {
	assert.Equal(t, "us", normalizeResidency("en-US"))
	assert.Equal(t, "us", normalizeResidency("us"))
}
