// Package httpapi is the public request handler (spec.md §6): gorilla/mux
// routing, a request-scoped middleware chain, and the uniform response
// envelope.
package httpapi

import "time"

// Meta is the envelope's metadata block (spec.md §6).
type Meta struct {
	FromCache         bool   `json:"from_cache"`
	CacheAgeMS        int64  `json:"cache_age,omitempty"`
	DurationMS        int64  `json:"duration_ms"`
	Timestamp         string `json:"timestamp"`
	RequestID         string `json:"request_id"`
	SandboxRestricted bool   `json:"sandbox_restriction,omitempty"`
}

// ErrorBody is the envelope's error block.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Envelope is the uniform response shape for every route (spec.md §6):
// {success, data|hotels|hotel, meta, error?}.
type Envelope struct {
	Success bool        `json:"success"`
	Data    any         `json:"data,omitempty"`
	Hotels  any         `json:"hotels,omitempty"`
	Hotel   any         `json:"hotel,omitempty"`
	Meta    Meta        `json:"meta"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func newMeta(requestID string, start time.Time) Meta {
	return Meta{
		DurationMS: time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		RequestID:  requestID,
	}
}
