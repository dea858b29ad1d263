package api

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/provosthq/provost/internal/audit"
	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/metrics"
	"github.com/provosthq/provost/internal/tenant"
)

const minPasswordLength = 8

// tenantProvisioner abstracts the provisioning transaction for handler tests.
type tenantProvisioner interface {
	Provision(ctx context.Context, in tenant.ProvisionInput) (*tenant.ProvisionResult, error)
}

// registerHandler provisions a new tenant with its founding principal.
type registerHandler struct {
	tenants tenantProvisioner
	audit   *recorder
	metrics *metrics.Metrics
}

func newRegisterHandler(tenants tenantProvisioner, audit *recorder, m *metrics.Metrics) *registerHandler {
	return &registerHandler{tenants: tenants, audit: audit, metrics: m}
}

// Register handles POST /api/auth/register.
func (h *registerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantName  string `json:"tenantName"`
		TenantSlug  string `json:"tenantSlug"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		DisplayName string `json:"displayName"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if msg := validateRegistration(req.TenantName, req.TenantSlug, req.Email, req.Password); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", msg)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to process credentials")
		return
	}

	result, err := h.tenants.Provision(r.Context(), tenant.ProvisionInput{
		TenantName:   req.TenantName,
		TenantSlug:   req.TenantSlug,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DisplayName:  req.DisplayName,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.TenantsProvisionedTotal.Inc()
	h.audit.record(r, result.TenantID, audit.ActionTenantProvisioned, map[string]any{
		"tenantSlug":  result.TenantSlug,
		"principalId": result.PrincipalID,
	})

	writeJSON(w, http.StatusCreated, result)
}

// validateRegistration returns a human-readable message for the first failed
// check, or "" when the input is acceptable. Slug shape and uniqueness are
// the store's concern.
func validateRegistration(tenantName, tenantSlug, email, password string) string {
	if strings.TrimSpace(tenantName) == "" {
		return "tenantName is required"
	}
	if strings.TrimSpace(tenantSlug) == "" {
		return "tenantSlug is required"
	}
	if strings.TrimSpace(email) == "" {
		return "email is required"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return "email is not a valid address"
	}
	if len(password) < minPasswordLength {
		return "password must be at least 8 characters"
	}
	return ""
}
