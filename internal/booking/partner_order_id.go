package booking

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NewPartnerOrderID generates a globally-unique, upstream-opaque order
// identifier: a UUIDv7 (time-ordered, 74 bits of randomness beyond its
// 48-bit embedded timestamp) gives the "effectively zero" collision probability
// spec.md §8 invariant 5 requires across 1,000,000 creations — a 32-bit
// truncated suffix does not. The human-legible "P-" prefix is purely for
// operator grep-ability in logs, not part of the uniqueness guarantee.
func NewPartnerOrderID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Entropy source failure: fall back to v4 rather than a weaker id.
		log.Warn().Err(err).Msg("uuid.NewV7 failed, falling back to v4")
		id = uuid.New()
	}
	return fmt.Sprintf("P-%s", id.String())
}
