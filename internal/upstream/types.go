package upstream

import "encoding/json"

// Room is one room's occupancy within a search: adult count plus the
// ordered list of child ages, per spec.md §3 "guests-canonical-form".
type Room struct {
	Adults     int   `json:"adults"`
	ChildAges  []int `json:"children"`
}

// Rate is a single bookable rate for a hotel, as returned by the upstream's
// search/page endpoints. BookHash is lifted to a top-level field by the
// client for convenience (spec.md §4.2, "never interprets rate data beyond
// extracting book_hash / match_hash").
type Rate struct {
	BookHash    string          `json:"book_hash"`
	MatchHash   string          `json:"match_hash,omitempty"`
	RoomName    string          `json:"room_name"`
	BoardName   string          `json:"board_name"`
	Price       float64         `json:"price"`
	Currency    string          `json:"currency"`
	Cancellable bool            `json:"cancellable"`
	Raw         json.RawMessage `json:"-"`
}

// Hotel is one hotel as returned within a search result, before enrichment.
type Hotel struct {
	HotelID  int64   `json:"hotel_id"`
	Name     string  `json:"name,omitempty"`
	MinRate  float64 `json:"min_rate"`
	MaxRate  float64 `json:"max_rate"`
	Rates    []Rate  `json:"rates"`
}

// HotelStatic is the canonical static-attributes record — spec.md §3
// "Hotel-static cache entry" / "Catalogue hotel record" shape.
type HotelStatic struct {
	HotelID        int64             `json:"hotel_id"`
	Language       string            `json:"language"`
	Name           string            `json:"name"`
	Address        string            `json:"address"`
	City           string            `json:"city"`
	Country        string            `json:"country"`
	StarRating     float64           `json:"star_rating"`
	Latitude       float64           `json:"latitude"`
	Longitude      float64           `json:"longitude"`
	Images         []string          `json:"images"`
	Amenities      []string          `json:"amenities"`
	Description    string            `json:"description"`
	CheckInTime    string            `json:"check_in_time"`
	CheckOutTime   string            `json:"check_out_time"`
	AmenityGroups  map[string][]string `json:"amenity_groups,omitempty"`
	RoomGroups     []RoomGroup       `json:"room_groups,omitempty"`
	Kind           string            `json:"kind,omitempty"`
	Raw            json.RawMessage   `json:"raw_data,omitempty"`
}

// RoomGroup is one room-type grouping within a hotel's static content.
type RoomGroup struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
}

// RegionSearchRequest is the input to region_search.
type RegionSearchRequest struct {
	RegionID int
	CheckIn  string
	CheckOut string
	Guests   []Room
	Currency string
	Residency string
}

// RegionSearchResponse is region_search's result: the ordered hotel list in
// upstream response order (spec.md §3 "the order ... is the upstream
// response order").
type RegionSearchResponse struct {
	Hotels []Hotel `json:"hotels"`
}

// HotelIDsSearchRequest is the input to hotel_ids_search (up to 300 ids).
type HotelIDsSearchRequest struct {
	HotelIDs  []int64
	CheckIn   string
	CheckOut  string
	Guests    []Room
	Currency  string
	Residency string
}

// HotelPageRequest is the input to hotel_page.
type HotelPageRequest struct {
	HotelID   int64
	CheckIn   string
	CheckOut  string
	Guests    []Room
	Currency  string
	Residency string
}

// HotelPageResponse pairs live rates with static content for one hotel.
type HotelPageResponse struct {
	Hotel  Hotel
	Static HotelStatic
}

// PrebookRequest is the input to prebook.
type PrebookRequest struct {
	BookHash  string
	Residency string
	Language  string
}

// PrebookResponse is prebook's result.
type PrebookResponse struct {
	BookingHash  string `json:"booking_hash"`
	PriceChanged bool   `json:"price_changed"`
	NewPrice     float64 `json:"new_price,omitempty"`
}

// BookingFormRequest is the input to booking_form.
type BookingFormRequest struct {
	BookHash       string
	PartnerOrderID string
	Language       string
}

// PaymentType enumerates upstream-offered settlement options. Preference
// order when the caller doesn't pick explicitly: Now, Hotel, Deposit
// (spec.md §4.7).
type PaymentType string

const (
	PaymentTypeNow     PaymentType = "now"
	PaymentTypeHotel   PaymentType = "hotel"
	PaymentTypeDeposit PaymentType = "deposit"
)

// BookingFormResponse is booking_form's result.
type BookingFormResponse struct {
	OrderID      int64         `json:"order_id"`
	ItemID       int64         `json:"item_id"`
	PaymentTypes []PaymentType `json:"payment_types"`
}

// Guest is one named occupant supplied at the finish step.
type Guest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdult   bool   `json:"is_adult"`
	Age       int    `json:"age,omitempty"`
}

// BookingFinishRequest is the input to booking_finish.
type BookingFinishRequest struct {
	OrderID        int64
	ItemID         int64
	PartnerOrderID string
	Guests         []Guest
	PaymentType    PaymentType
}

// BookingFinishResponse is booking_finish's immediate (pre-async) result.
type BookingFinishResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// BookingStatusResponse is booking_status's result.
type BookingStatusResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"` // "processing", "confirmed", "failed", "cancelled"
}

// OrderInfoResponse is order_info's result.
type OrderInfoResponse struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// OrderCancelResponse is order_cancel's result.
type OrderCancelResponse struct {
	OrderID   int64  `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
}

// MulticompleteResponse is multicomplete's result.
type MulticompleteResponse struct {
	Results []AutocompleteResult `json:"results"`
}

// AutocompleteResult is one suggestion from multicomplete.
type AutocompleteResult struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	RegionID int    `json:"region_id,omitempty"`
	HotelID  int64  `json:"hotel_id,omitempty"`
}

// FilterValuesResponse is filter_values's result: an opaque metadata blob
// the gateway passes through without interpretation (spec.md §1 Non-goals).
type FilterValuesResponse struct {
	Values json.RawMessage `json:"values"`
}

// RegionLookupResult is one candidate from region_lookup.
type RegionLookupResult struct {
	RegionID int    `json:"region_id"`
	Name     string `json:"name"`
	Country  string `json:"country,omitempty"`
}

// envelope is the invariant upstream wire contract (spec.md §6):
// {status, data, error, debug}.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error,omitempty"`
	Debug  json.RawMessage `json:"debug,omitempty"`
}
