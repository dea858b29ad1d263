package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/provosthq/provost/internal/audit"
	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/metrics"
)

// activeTenantWriter abstracts persisting the principal's last-used tenant.
type activeTenantWriter interface {
	SetActiveTenant(ctx context.Context, principalID, tenantID string) error
}

// authHandler groups session lifecycle HTTP handlers.
type authHandler struct {
	verifier   *auth.Verifier
	tokens     *auth.TokenManager
	principals activeTenantWriter
	audit      *recorder
	metrics    *metrics.Metrics
}

func newAuthHandler(verifier *auth.Verifier, tokens *auth.TokenManager, principals activeTenantWriter, audit *recorder, m *metrics.Metrics) *authHandler {
	return &authHandler{
		verifier:   verifier,
		tokens:     tokens,
		principals: principals,
		audit:      audit,
		metrics:    m,
	}
}

// Login handles POST /api/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Tenant   string `json:"tenant"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "email and password are required")
		return
	}

	record, err := h.verifier.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.IncAuthFailure("password")
		writeDomainError(w, err)
		return
	}

	// An explicitly requested tenant must be in the membership set; falling
	// back silently would log the user into a tenant they did not ask for.
	if req.Tenant != "" && !hasSlug(record.Memberships, req.Tenant) {
		h.metrics.IncAuthFailure("tenant")
		writeDomainError(w, auth.ErrTenantNotAvailable)
		return
	}

	activeTenantID := auth.SelectActiveTenant(record.Memberships, auth.TenantHints{
		RequestedSlug:         req.Tenant,
		StoredDefaultTenantID: record.DefaultTenantID,
		CurrentActiveTenantID: record.ActiveTenantID,
	})

	// Persist the landing tenant so the next login resumes there.
	if activeTenantID != record.ActiveTenantID {
		if err := h.principals.SetActiveTenant(r.Context(), record.ID, activeTenantID); err != nil {
			slog.Warn("persisting active tenant failed", "principal_id", record.ID, "error", err)
		}
	}

	token, err := h.tokens.Mint(record, record.Memberships, activeTenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	sess := &auth.Session{
		PrincipalID:     record.ID,
		Email:           record.Email,
		DisplayName:     record.DisplayName,
		DefaultTenantID: record.DefaultTenantID,
		ActiveTenantID:  activeTenantID,
		Memberships:     record.Memberships,
	}

	h.metrics.IncAuthSuccess("password")
	h.metrics.SessionsMintedTotal.Inc()
	h.audit.record(r.WithContext(auth.ContextWithSession(r.Context(), sess)), activeTenantID, audit.ActionSignIn, nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"expiresIn": int(h.tokens.TTL().Seconds()),
		"session":   sess,
	})
}

// Me handles GET /api/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.RequireSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// PostLogin handles GET /api/auth/post-login. It resolves the dashboard the
// caller should land on after signing in.
func (h *authHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.RequireSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"redirectTo": auth.DashboardPath(sess),
	})
}

// SwitchTenant handles POST /api/auth/tenant. It re-mints the session token
// with a new active tenant from the caller's membership snapshot.
func (h *authHandler) SwitchTenant(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.RequireSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req struct {
		TenantID   string `json:"tenantId"`
		TenantSlug string `json:"tenantSlug"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	tenantID := req.TenantID
	if tenantID == "" && req.TenantSlug != "" {
		// A slug outside the snapshot is a forbidden target, not a missing
		// field.
		m := sess.MembershipByTenantSlug(req.TenantSlug)
		if m == nil {
			writeDomainError(w, auth.ErrForbiddenTenantSwitch)
			return
		}
		tenantID = m.TenantID
	}
	if tenantID == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "tenantId or tenantSlug is required")
		return
	}

	token, err := h.tokens.WithActiveTenant(sess, tenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.principals.SetActiveTenant(r.Context(), sess.PrincipalID, tenantID); err != nil {
		slog.Warn("persisting active tenant failed", "principal_id", sess.PrincipalID, "error", err)
	}

	h.metrics.TenantSwitchesTotal.Inc()
	h.metrics.SessionsMintedTotal.Inc()
	h.audit.record(r, tenantID, audit.ActionTenantSwitched, map[string]any{"from": sess.ActiveTenantID})

	writeJSON(w, http.StatusOK, map[string]string{
		"token":          token,
		"activeTenantId": tenantID,
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so the server
// only records the sign-out; the client discards the token.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		h.audit.record(r, sess.ActiveTenantID, audit.ActionSignOut, nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

func hasSlug(memberships []auth.Membership, slug string) bool {
	for _, m := range memberships {
		if m.TenantSlug == slug {
			return true
		}
	}
	return false
}
