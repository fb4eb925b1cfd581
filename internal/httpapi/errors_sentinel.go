package httpapi

import "errors"

var (
	errGuestsMissing = errors.New("guests is required and must be a non-empty array")
	errGuestsShape   = errors.New("guests must be an array of {adults, children} objects")
	errGuestsAdults  = errors.New("each room requires at least one adult")
	errMissingDest   = errors.New("destination is required")
	errMissingHash   = errors.New("book_hash is required")

	errMissingPartnerOrderID = errors.New("partner_order_id is required")
)
