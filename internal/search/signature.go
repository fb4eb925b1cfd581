// Package search implements the search orchestrator (spec.md §4.6): resolve
// destination, compute a cache signature, serve from cache or upstream,
// enrich from the catalogue, and write through.
package search

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

// Params is the canonical, typed search request (spec.md §9 "parse to a
// single typed guests representation at the boundary").
type Params struct {
	RegionID  int
	CheckIn   string
	CheckOut  string
	Guests    []upstream.Room
	Currency  string
	Residency string
}

// normalizeResidency strips any language prefix from a locale-shaped
// residency value and lowercases it, matching spec.md §6/§9's "lowercase
// two-letter form at the upstream boundary and at cache-key computation".
func normalizeResidency(residency string) string {
	residency = strings.ToLower(strings.TrimSpace(residency))
	if i := strings.LastIndex(residency, "-"); i >= 0 {
		residency = residency[i+1:]
	}
	return residency
}

// Signature computes the 128-bit digest described in spec.md §3/§8
// invariant 1: a pure function of region_id, checkin, checkout, a
// deterministic guests encoding, and currency. Residency is excluded;
// md5 is used purely as a fixed-width digest, not for any cryptographic
// property — no ecosystem library in the example corpus offers a plain
// 128-bit non-cryptographic digest, and the upstream autocomplete cache key
// itself is specified as an MD5, so the same primitive is reused here for
// consistency (see DESIGN.md).
func Signature(p Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "region=%d|in=%s|out=%s|cur=%s|guests=", p.RegionID, p.CheckIn, p.CheckOut, strings.ToUpper(p.Currency))
	b.WriteString(canonicalGuests(p.Guests))
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalGuests renders rooms in the order given (room order is
// significant — a 2-adult room then a 1-adult room differs from the
// reverse) but child ages are sorted within a room since spec.md only
// mandates "ordered list of integer ages" at the API boundary, not that
// permutation of the same multiset differs at the signature layer.
func canonicalGuests(rooms []upstream.Room) string {
	parts := make([]string, len(rooms))
	for i, r := range rooms {
		ages := append([]int(nil), r.ChildAges...)
		sort.Ints(ages)
		ageStrs := make([]string, len(ages))
		for j, a := range ages {
			ageStrs[j] = fmt.Sprintf("%d", a)
		}
		parts[i] = fmt.Sprintf("%d:%d:[%s]", i, r.Adults, strings.Join(ageStrs, ","))
	}
	return strings.Join(parts, ";")
}
