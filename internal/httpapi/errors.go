package httpapi

import "github.com/distribn/hotel-gateway/internal/upstream"

// statusForKind is spec.md §7's error-taxonomy-to-HTTP-status table.
// sandbox-restriction is deliberately absent — it is handled inline by
// writeError as HTTP 200 with meta.sandbox_restriction = true, not a
// status-coded error.
var statusForKind = map[upstream.Kind]int{
	upstream.KindInvalidInput:       400,
	upstream.KindNotFound:           404,
	upstream.KindQuotaExhausted:     429,
	upstream.KindTimeout:            504,
	upstream.KindUpstreamError:      502,
	upstream.KindBackendUnavailable: 503,
	upstream.KindInternal:           500,
}

func statusFor(kind upstream.Kind) int {
	if s, ok := statusForKind[kind]; ok {
		return s
	}
	return 500
}
