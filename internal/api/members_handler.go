package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/provosthq/provost/internal/audit"
	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/membership"
	"github.com/provosthq/provost/internal/metrics"
	"github.com/provosthq/provost/internal/rbac"
)

// MemberEntry is the roster row shape served by the admin endpoints.
type MemberEntry = membership.MemberSummary

// memberLister abstracts the membership store for handler tests.
type memberLister interface {
	ListForTenant(ctx context.Context, tenantID string) ([]MemberEntry, error)
	UpdateStatus(ctx context.Context, tenantID, membershipID, actingMembershipID, status string) (*MemberEntry, error)
}

// membersHandler serves the tenant admin roster.
type membersHandler struct {
	members memberLister
	guard   *auth.Guard
	audit   *recorder
	metrics *metrics.Metrics
}

func newMembersHandler(members memberLister, guard *auth.Guard, audit *recorder, m *metrics.Metrics) *membersHandler {
	return &membersHandler{members: members, guard: guard, audit: audit, metrics: m}
}

// requireManager resolves the caller's membership for the tenant in the URL
// and checks it carries a management role. Status is re-read from the store:
// tenant administration is a sensitive operation and must see a suspension
// applied after the session token was minted.
func requireManager(r *http.Request, guard *auth.Guard) (*auth.Membership, error) {
	sess, err := auth.RequireSession(r.Context())
	if err != nil {
		return nil, err
	}
	m, err := guard.RequireLiveMembership(r.Context(), sess, auth.MembershipCriteria{
		TenantSlug: chi.URLParam(r, "tenantSlug"),
	})
	if err != nil {
		return nil, err
	}
	if err := auth.AssertAnyRole(m, rbac.ManagementRoles...); err != nil {
		return nil, err
	}
	return m, nil
}

// List handles GET /api/tenants/{tenantSlug}/admin/users.
func (h *membersHandler) List(w http.ResponseWriter, r *http.Request) {
	m, err := requireManager(r, h.guard)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	members, err := h.members.ListForTenant(r.Context(), m.TenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list members")
		return
	}
	if members == nil {
		members = []MemberEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
	})
}

// UpdateStatus handles PATCH /api/tenants/{tenantSlug}/admin/users.
func (h *membersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	m, err := requireManager(r, h.guard)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req struct {
		MembershipID string `json:"membershipId"`
		Status       string `json:"status"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.MembershipID == "" || req.Status == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "membershipId and status are required")
		return
	}

	updated, err := h.members.UpdateStatus(r.Context(), m.TenantID, req.MembershipID, m.MembershipID, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.IncStatusUpdate(req.Status)
	h.audit.record(r, m.TenantID, audit.ActionStatusUpdated, map[string]any{
		"membershipId": req.MembershipID,
		"status":       req.Status,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member": updated,
	})
}
