package httpapi

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/distribn/hotel-gateway/internal/upstream"
)

// searchRequest is the typed inbound shape search handlers parse into
// before anything touches the orchestrator (spec.md §9: "parse to a single
// typed guests representation at the boundary... reject anything else with
// invalid-input").
type searchRequest struct {
	Destination string          `json:"destination"`
	CheckIn     string          `json:"checkin"`
	CheckOut    string          `json:"checkout"`
	Guests      json.RawMessage `json:"guests"`
	Currency    string          `json:"currency"`
	Residency   string          `json:"residency"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	Signature   string          `json:"signature"`
	Language    string          `json:"language"`
}

// parseGuests accepts only an array of {adults, children} objects; any
// other shape (string, single object, mismatched types) is rejected. The
// legacy source's loosely-shaped "guests as string or various array
// shapes" is explicitly out of scope (spec.md §9).
func parseGuests(raw json.RawMessage) ([]upstream.Room, error) {
	if len(raw) == 0 {
		return nil, upstream.NewError(upstream.KindInvalidInput, "search", errGuestsMissing)
	}
	var rooms []struct {
		Adults   int   `json:"adults"`
		Children []int `json:"children"`
	}
	if err := json.Unmarshal(raw, &rooms); err != nil {
		return nil, upstream.NewError(upstream.KindInvalidInput, "search", errGuestsShape)
	}
	if len(rooms) == 0 {
		return nil, upstream.NewError(upstream.KindInvalidInput, "search", errGuestsMissing)
	}
	out := make([]upstream.Room, len(rooms))
	for i, r := range rooms {
		if r.Adults < 1 {
			return nil, upstream.NewError(upstream.KindInvalidInput, "search", errGuestsAdults)
		}
		out[i] = upstream.Room{Adults: r.Adults, ChildAges: r.Children}
	}
	return out, nil
}

// autocompleteCacheKey is the MD5(query, locale) key specified for the
// autocomplete cache (spec.md §3).
func autocompleteCacheKey(query, locale string) string {
	sum := md5.Sum([]byte(strings.ToLower(query) + "|" + strings.ToLower(locale)))
	return hex.EncodeToString(sum[:])
}
