package apperr

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
)

// Tags classify failures so callers can map them to transport-level
// responses without string matching. Every error surfaced by the
// embedding, vector store, generation, and orchestration layers carries
// exactly one of these.
var (
	// TagInvalidInput marks bad caller-supplied data.
	TagInvalidInput = goerr.NewTag("invalid_input")

	// TagNotFound marks a missing persona or memory.
	TagNotFound = goerr.NewTag("not_found")

	// TagUnavailable marks an unreachable dependency (embedding service,
	// vector store, or completion backend).
	TagUnavailable = goerr.NewTag("dependency_unavailable")

	// TagTimeout marks a bounded wait that was exceeded.
	TagTimeout = goerr.NewTag("timeout")

	// TagUpstream marks a dependency that was reachable but returned an error.
	TagUpstream = goerr.NewTag("upstream_error")

	// TagMalformedOutput marks completion text that failed structured parsing.
	TagMalformedOutput = goerr.NewTag("malformed_output")

	// TagEmptyResponse marks a successful completion call with no content.
	TagEmptyResponse = goerr.NewTag("empty_response")
)

// HTTPStatus maps a tagged error to its status-equivalent. Untagged
// errors fall through to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goerr.HasTag(err, TagInvalidInput):
		return http.StatusBadRequest
	case goerr.HasTag(err, TagNotFound):
		return http.StatusNotFound
	case goerr.HasTag(err, TagUnavailable):
		return http.StatusServiceUnavailable
	case goerr.HasTag(err, TagTimeout):
		return http.StatusGatewayTimeout
	case goerr.HasTag(err, TagUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable error code for API responses.
func Code(err error) string {
	switch {
	case goerr.HasTag(err, TagInvalidInput):
		return "invalid_input"
	case goerr.HasTag(err, TagNotFound):
		return "not_found"
	case goerr.HasTag(err, TagUnavailable):
		return "dependency_unavailable"
	case goerr.HasTag(err, TagTimeout):
		return "timeout"
	case goerr.HasTag(err, TagUpstream):
		return "upstream_error"
	case goerr.HasTag(err, TagMalformedOutput):
		return "malformed_output"
	case goerr.HasTag(err, TagEmptyResponse):
		return "empty_response"
	default:
		return "internal_error"
	}
}

// IsUnavailable reports whether err was caused by an unreachable dependency.
func IsUnavailable(err error) bool {
	return goerr.HasTag(err, TagUnavailable)
}

// IsNotFound reports whether err marks a missing entity.
func IsNotFound(err error) bool {
	return goerr.HasTag(err, TagNotFound)
}
