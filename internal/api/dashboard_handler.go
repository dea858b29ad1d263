package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/provosthq/provost/internal/audit"
	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/membership"
)

const recentActivityLimit = 20

// auditTrail abstracts the audit store's read side for handler tests.
type auditTrail interface {
	ListRecent(ctx context.Context, tenantID string, limit int) ([]audit.Event, error)
}

// dashboardHandler serves the per-role dashboard data endpoints.
type dashboardHandler struct {
	members memberLister
	trail   auditTrail
	guard   *auth.Guard
}

func newDashboardHandler(members memberLister, trail auditTrail, guard *auth.Guard) *dashboardHandler {
	return &dashboardHandler{members: members, trail: trail, guard: guard}
}

// Admin handles GET /api/tenants/{tenantSlug}/admin/dashboard. The roster and
// the recent audit trail are independent reads, so they run concurrently.
func (h *dashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	m, err := requireManager(r, h.guard)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var (
		wg       sync.WaitGroup
		members  []MemberEntry
		events   []audit.Event
		mErr     error
		trailErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		members, mErr = h.members.ListForTenant(r.Context(), m.TenantID)
	}()
	go func() {
		defer wg.Done()
		events, trailErr = h.trail.ListRecent(r.Context(), m.TenantID, recentActivityLimit)
	}()
	wg.Wait()

	if mErr != nil || trailErr != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard data")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	active, suspended := 0, 0
	roleCounts := map[string]int{}
	for _, member := range members {
		switch member.Status {
		case membership.StatusActive:
			active++
		case membership.StatusSuspended:
			suspended++
		}
		roleCounts[string(member.RoleKey)]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tenant": map[string]string{
			"id":   m.TenantID,
			"slug": m.TenantSlug,
			"name": m.TenantName,
		},
		"totals": map[string]int{
			"members":   len(members),
			"active":    active,
			"suspended": suspended,
		},
		"roleCounts":     roleCounts,
		"recentActivity": events,
	})
}

// Scholar handles GET /api/tenants/{tenantSlug}/scholar/dashboard. Any role
// in the tenant may view their own membership summary.
func (h *dashboardHandler) Scholar(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.RequireSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	m, err := auth.RequireMembership(sess, auth.MembershipCriteria{
		TenantSlug: chi.URLParam(r, "tenantSlug"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"membership":  m,
		"displayName": sess.DisplayName,
		"email":       sess.Email,
	})
}
