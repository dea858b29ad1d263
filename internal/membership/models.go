package membership

import (
	"time"

	"github.com/provosthq/provost/internal/rbac"
)

// Membership statuses. A membership is either live or administratively
// suspended; suspended entries never enter a session snapshot.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// ValidStatus reports whether s is a status this store accepts.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusSuspended
}

// Membership is one principal-to-tenant binding row. Permissions is the
// row's own snapshot, copied from the role at assignment time; editing the
// role later does not rewrite existing memberships.
type Membership struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	TenantID    string    `json:"tenant_id"`
	RoleID      string    `json:"role_id"`
	Permissions []string  `json:"permissions"`
	Status      string    `json:"status"`
	Primary     bool      `json:"primary"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// View is a membership joined to its tenant and role, shaped for session
// snapshots and tenant switching.
type View struct {
	MembershipID string       `json:"membership_id"`
	TenantID     string       `json:"tenant_id"`
	TenantSlug   string       `json:"tenant_slug"`
	TenantName   string       `json:"tenant_name"`
	RoleID       string       `json:"role_id"`
	RoleKey      rbac.RoleKey `json:"role_key"`
	RoleName     string       `json:"role_name"`
	Permissions  []string     `json:"permissions"`
	Status       string       `json:"status"`
	Primary      bool         `json:"primary"`
}

// MemberSummary is a membership joined to its principal and role, shaped for
// the tenant admin roster.
type MemberSummary struct {
	MembershipID string       `json:"membershipId"`
	PrincipalID  string       `json:"principalId"`
	Email        string       `json:"email"`
	DisplayName  string       `json:"displayName"`
	RoleKey      rbac.RoleKey `json:"roleKey"`
	RoleName     string       `json:"roleName"`
	Status       string       `json:"status"`
	Primary      bool         `json:"primary"`
	JoinedAt     time.Time    `json:"joinedAt"`
}

// CreateMembershipInput holds the fields required to bind a principal to a
// tenant with a role.
type CreateMembershipInput struct {
	PrincipalID string
	TenantID    string
	RoleID      string
	Status      string
	Primary     bool
}
