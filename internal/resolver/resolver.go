// Package resolver implements spec.md §4.5's three-tier destination
// resolver: static compiled-in table, persistent cache, upstream fallback.
package resolver

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/distribn/hotel-gateway/internal/cache"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

var (
	errEmptyInput   = errors.New("empty destination input")
	errNoCandidates = errors.New("no region candidates from upstream")
)

// Source identifies which tier produced a Result.
type Source string

const (
	SourceNumeric  Source = "numeric"
	SourceStatic   Source = "static"
	SourceCache    Source = "cache"
	SourceUpstream Source = "upstream"
)

// sourceTier orders sources for invariant 4 ("source is ≤ tier of the
// first"): numeric and static are tier 1, cache tier 2, upstream tier 3.
var sourceTier = map[Source]int{
	SourceNumeric:  1,
	SourceStatic:   1,
	SourceCache:    2,
	SourceUpstream: 3,
}

// Tier reports the relative tier of a Source, for callers implementing the
// idempotency invariant.
func Tier(s Source) int { return sourceTier[s] }

// Result is resolve's public contract (spec.md §4.5).
type Result struct {
	RegionID   int
	RegionName string
	Source     Source
}

// UpstreamLookup is the subset of upstream.Client the resolver needs,
// narrowed for testability.
type UpstreamLookup interface {
	RegionLookup(ctx context.Context, query string) ([]upstream.RegionLookupResult, error)
}

// Resolver resolves free-form destination input to a region id.
type Resolver struct {
	cache    cache.Store
	upstream UpstreamLookup
}

func New(store cache.Store, up UpstreamLookup) *Resolver {
	return &Resolver{cache: store, upstream: up}
}

var slugRe = regexp.MustCompile(`[^/]+$`)

// Resolve implements the ordered tier algorithm from spec.md §4.5.
func (r *Resolver) Resolve(ctx context.Context, input string) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Result{}, upstream.NewError(upstream.KindInvalidInput, "resolve", errEmptyInput)
	}

	// Tier 0: numeric, no I/O.
	if n, err := strconv.Atoi(input); err == nil {
		return Result{RegionID: n, RegionName: "", Source: SourceNumeric}, nil
	}

	// Slug parse: "country/city_snake_case" -> title-cased city name.
	candidate := input
	if strings.Contains(input, "/") {
		last := slugRe.FindString(input)
		candidate = titleCase(strings.ReplaceAll(last, "_", " "))
	}

	normalized := normalizeName(candidate)

	// Tier 1: static map.
	if e, ok := lookupStatic(normalized); ok {
		return Result{RegionID: e.regionID, RegionName: e.regionName, Source: SourceStatic}, nil
	}

	// Tier 2: destination_cache.
	if entry, found, err := r.cache.GetDestination(ctx, normalized); err == nil && found {
		if touchErr := r.cache.TouchDestination(ctx, normalized); touchErr != nil {
			log.Warn().Err(touchErr).Str("destination", normalized).Msg("destination cache touch failed")
		}
		return Result{RegionID: entry.RegionID, RegionName: entry.RegionName, Source: SourceCache}, nil
	}

	// Tier 3: upstream.
	results, err := r.upstream.RegionLookup(ctx, candidate)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, upstream.NewError(upstream.KindNotFound, "resolve", errNoCandidates)
	}
	winner := results[0]
	if putErr := r.cache.PutDestination(ctx, cache.DestinationEntry{
		NormalizedName: normalized,
		RegionID:       winner.RegionID,
		RegionName:     winner.Name,
	}); putErr != nil {
		log.Warn().Err(putErr).Str("destination", normalized).Msg("destination cache write-through failed")
	}
	return Result{RegionID: winner.RegionID, RegionName: winner.Name, Source: SourceUpstream}, nil
}

// normalizeName applies spec.md §4.5's Tier-1 normalization: lowercase,
// strip punctuation, collapse whitespace, drop a comma-suffix.
func normalizeName(s string) string {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t' || r == '\n':
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
		default:
			// punctuation: dropped entirely
		}
	}
	return strings.TrimSpace(b.String())
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
