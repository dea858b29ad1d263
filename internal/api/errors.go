package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/membership"
	"github.com/provosthq/provost/internal/tenant"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// writeDomainError maps known domain sentinels onto the HTTP error envelope.
// Unrecognized errors become a generic 500; their detail stays server-side.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, auth.ErrNoActiveTenants):
		writeError(w, http.StatusForbidden, "no_active_tenants", "no active tenant memberships for this account")
	case errors.Is(err, auth.ErrTenantNotAvailable):
		writeError(w, http.StatusForbidden, "forbidden", "requested tenant access is not available")
	case errors.Is(err, auth.ErrForbiddenTenantSwitch):
		writeError(w, http.StatusForbidden, "forbidden", "requested tenant access is not available")
	case errors.Is(err, auth.ErrMembershipSuspended):
		writeError(w, http.StatusForbidden, "membership_suspended", "membership is suspended")
	case errors.Is(err, auth.ErrMissingPermission):
		writeError(w, http.StatusForbidden, "forbidden", "missing required permission")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "you do not have access to this tenant")
	case errors.Is(err, membership.ErrSelfStatusChange):
		writeError(w, http.StatusBadRequest, "self_status_change", "you cannot change the status of your own membership")
	case errors.Is(err, membership.ErrInvalidStatus):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "status must be active or suspended")
	case errors.Is(err, membership.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "membership not found")
	case errors.Is(err, tenant.ErrInvalidSlug):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", tenant.ErrInvalidSlug.Error())
	case errors.Is(err, tenant.ErrSlugInUse):
		writeError(w, http.StatusConflict, "conflict", "tenant slug already in use")
	case errors.Is(err, tenant.ErrEmailInUse):
		writeError(w, http.StatusConflict, "conflict", "email already in use")
	case errors.Is(err, tenant.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "tenant not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
