package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
	"github.com/krishnasinghprojects/kpsyche/pkg/api"
)

// ownerHeader carries the authenticated owner identity. Verification of
// the identity itself happens upstream of this service.
const ownerHeader = "X-Owner-ID"

func ownerID(r *http.Request) string {
	return r.Header.Get(ownerHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders a taxonomy-tagged error with its status-equivalent.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), api.ErrorResponse{
		Error: api.ErrorDetail{Code: apperr.Code(err), Message: err.Error()},
	})
}

// writeBadRequest rejects malformed request bodies and missing fields.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
		Error: api.ErrorDetail{Code: "invalid_input", Message: message},
	})
}

// requireOwner extracts the owner identity or rejects the request.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := ownerID(r)
	if owner == "" {
		writeBadRequest(w, ownerHeader+" header is required")
		return "", false
	}
	return owner, true
}
