// Package auth implements the session and tenant-membership resolution core:
// credential verification, active-tenant selection, signed session tokens,
// and the access guard that scopes every request to a tenant the principal
// actually belongs to.
package auth

import (
	"context"

	"github.com/provosthq/provost/internal/rbac"
)

// Membership is the session snapshot of one tenant membership. It is copied
// into the token at mint time and is not a live reference to the store.
type Membership struct {
	MembershipID string       `json:"membershipId"`
	TenantID     string       `json:"tenantId"`
	TenantSlug   string       `json:"tenantSlug"`
	TenantName   string       `json:"tenantName"`
	RoleID       string       `json:"roleId"`
	RoleKey      rbac.RoleKey `json:"roleKey"`
	RoleName     string       `json:"roleName"`
	Permissions  []string     `json:"permissions"`
	Status       string       `json:"status"`
	Primary      bool         `json:"primary"`
}

// HasRole reports whether the membership carries exactly the given role.
func (m *Membership) HasRole(role rbac.RoleKey) bool {
	return m.RoleKey == role
}

// HasAnyRole reports whether the membership carries any of the given roles.
func (m *Membership) HasAnyRole(roles ...rbac.RoleKey) bool {
	for _, role := range roles {
		if m.RoleKey == role {
			return true
		}
	}
	return false
}

// HasPermission checks the membership's permission snapshot for the token,
// honoring the wildcard.
func (m *Membership) HasPermission(permission string) bool {
	return rbac.HasPermission(m.Permissions, permission)
}

// Session is the rehydrated identity for one request: the principal, the
// membership snapshot embedded in the token, and the active tenant.
type Session struct {
	PrincipalID     string       `json:"principalId"`
	Email           string       `json:"email"`
	DisplayName     string       `json:"displayName"`
	DefaultTenantID string       `json:"defaultTenantId,omitempty"`
	ActiveTenantID  string       `json:"activeTenantId,omitempty"`
	Memberships     []Membership `json:"memberships"`
}

// MembershipByTenantID returns the snapshot entry for the tenant id, or nil.
func (s *Session) MembershipByTenantID(tenantID string) *Membership {
	for i := range s.Memberships {
		if s.Memberships[i].TenantID == tenantID {
			return &s.Memberships[i]
		}
	}
	return nil
}

// MembershipByTenantSlug returns the snapshot entry for the tenant slug, or nil.
func (s *Session) MembershipByTenantSlug(slug string) *Membership {
	for i := range s.Memberships {
		if s.Memberships[i].TenantSlug == slug {
			return &s.Memberships[i]
		}
	}
	return nil
}

// TenantSlugs returns the slugs of every tenant in the snapshot.
func (s *Session) TenantSlugs() []string {
	slugs := make([]string, len(s.Memberships))
	for i, m := range s.Memberships {
		slugs[i] = m.TenantSlug
	}
	return slugs
}

type contextKey int

const sessionContextKey contextKey = iota

// ContextWithSession returns a new context carrying the given session.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext extracts the session from the context, or nil if absent.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// RequireSession extracts the session from the context, failing with
// ErrUnauthenticated when no valid token was presented on this request.
func RequireSession(ctx context.Context) (*Session, error) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}
