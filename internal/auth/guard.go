package auth

import (
	"context"
	"fmt"

	"github.com/provosthq/provost/internal/rbac"
)

// MembershipCriteria selects a membership by tenant id or slug. Exactly one
// field should be set; id wins when both are.
type MembershipCriteria struct {
	TenantID   string
	TenantSlug string
}

// RequireMembership returns the session's membership for the requested
// tenant, failing with ErrForbidden when the snapshot has no entry for it.
// The returned membership always matches the criteria.
func RequireMembership(sess *Session, criteria MembershipCriteria) (*Membership, error) {
	var membership *Membership
	switch {
	case criteria.TenantID != "":
		membership = sess.MembershipByTenantID(criteria.TenantID)
	case criteria.TenantSlug != "":
		membership = sess.MembershipByTenantSlug(criteria.TenantSlug)
	}
	if membership == nil {
		return nil, ErrForbidden
	}
	return membership, nil
}

// AssertAnyRole fails with ErrForbidden unless the membership carries one of
// the given roles.
func AssertAnyRole(membership *Membership, roles ...rbac.RoleKey) error {
	if !membership.HasAnyRole(roles...) {
		return ErrForbidden
	}
	return nil
}

// AssertPermission fails with ErrMissingPermission unless the membership's
// snapshot grants the token.
func AssertPermission(membership *Membership, permission string) error {
	if !membership.HasPermission(permission) {
		return fmt.Errorf("%w: %s", ErrMissingPermission, permission)
	}
	return nil
}

// StatusChecker reads a membership's live status from the store, bypassing
// the token snapshot.
type StatusChecker interface {
	MembershipStatus(ctx context.Context, membershipID string) (string, error)
}

// Guard performs membership and role checks against a rehydrated session.
// When a StatusChecker is configured, sensitive operations can re-verify the
// acting membership's live status instead of trusting the snapshot: a
// principal suspended mid-session is blocked on the next check even though
// their token still lists the tenant.
type Guard struct {
	statuses StatusChecker
}

// NewGuard creates a Guard. statuses may be nil, in which case live
// re-verification is unavailable and RequireLiveMembership degrades to the
// snapshot check.
func NewGuard(statuses StatusChecker) *Guard {
	return &Guard{statuses: statuses}
}

// RequireLiveMembership performs the snapshot membership check and then
// re-reads the membership's status from the store. Suspended or deleted
// memberships fail with ErrMembershipSuspended / ErrForbidden regardless of
// what the token says.
func (g *Guard) RequireLiveMembership(ctx context.Context, sess *Session, criteria MembershipCriteria) (*Membership, error) {
	membership, err := RequireMembership(sess, criteria)
	if err != nil {
		return nil, err
	}

	if g.statuses == nil {
		return membership, nil
	}

	status, err := g.statuses.MembershipStatus(ctx, membership.MembershipID)
	if err != nil {
		// A membership the store no longer knows about is treated the same as
		// one that never existed.
		return nil, ErrForbidden
	}
	if status != "active" {
		return nil, ErrMembershipSuspended
	}
	return membership, nil
}

// DashboardPath computes the principal's own default dashboard path from the
// session's memberships: the active membership if set, otherwise the primary
// one, otherwise the first. Used as the redirect target when UI navigation
// hits a tenant the principal no longer belongs to.
func DashboardPath(sess *Session) string {
	membership := currentMembership(sess)
	if membership == nil {
		return "/"
	}
	segment := rbac.DashboardSegment(membership.RoleKey)
	if segment == "" {
		return "/" + membership.TenantSlug
	}
	return "/" + membership.TenantSlug + "/" + segment
}

// currentMembership resolves the membership the session is currently acting
// under, reusing the selector's precedence over the session's own snapshot.
func currentMembership(sess *Session) *Membership {
	if len(sess.Memberships) == 0 {
		return nil
	}
	tenantID := SelectActiveTenant(sess.Memberships, TenantHints{
		CurrentActiveTenantID: sess.ActiveTenantID,
		StoredDefaultTenantID: sess.DefaultTenantID,
	})
	if m := sess.MembershipByTenantID(tenantID); m != nil {
		return m
	}
	return &sess.Memberships[0]
}

// CurrentMembership exposes the session's acting membership for handlers
// rendering "who am I" style responses.
func CurrentMembership(sess *Session) *Membership {
	return currentMembership(sess)
}
