package generate

import "errors"

// Configuration errors (client-correctable, 400 at the HTTP layer).
var (
	ErrMissingAPIKey = errors.New("gemini api key not configured")
	ErrMissingGASURL = errors.New("gas url not configured")
	ErrMissingPrompt = errors.New("prompt not configured")
)

// Upstream errors. Fetch failures cover the sample collector; generation
// failures cover the Gemini call. Timeouts are distinguishable from other
// network errors so operators can tell slow upstreams from broken ones.
var (
	ErrUpstreamFetch   = errors.New("failed to fetch survey samples")
	ErrUpstreamTimeout = errors.New("upstream call timed out")
	ErrGeneration      = errors.New("generation request failed")
	ErrEmptyGeneration = errors.New("generation returned no text")
)
