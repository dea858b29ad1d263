// Package rbac defines the closed set of role keys, the per-tenant role seed
// table, and permission-token checks used by the access guard.
package rbac

import "fmt"

// RoleKey identifies one of the fixed roles a membership can carry.
type RoleKey string

const (
	RoleSuperAdmin RoleKey = "SUPER_ADMIN"
	RoleAdmin      RoleKey = "ADMIN"
	RoleSupervisor RoleKey = "SUPERVISOR"
	RoleScholar    RoleKey = "SCHOLAR"
	RoleDeveloper  RoleKey = "DEVELOPER"
)

// Wildcard is the reserved permission token that grants every permission.
const Wildcard = "*"

// ManagementRoles are the roles allowed to administer a tenant.
var ManagementRoles = []RoleKey{RoleSuperAdmin, RoleAdmin}

// ParseRoleKey validates a raw role key string against the closed set.
func ParseRoleKey(s string) (RoleKey, error) {
	switch RoleKey(s) {
	case RoleSuperAdmin, RoleAdmin, RoleSupervisor, RoleScholar, RoleDeveloper:
		return RoleKey(s), nil
	}
	return "", fmt.Errorf("unknown role key %q", s)
}

// RoleSeed describes one role to create when a tenant is provisioned.
type RoleSeed struct {
	Key         RoleKey
	Name        string
	Description string
	Permissions []string
}

// SeedTable is the fixed role/permission table applied to every new tenant.
var SeedTable = []RoleSeed{
	{
		Key:         RoleSuperAdmin,
		Name:        "Super Admin",
		Description: "Full control over the tenant",
		Permissions: []string{Wildcard},
	},
	{
		Key:         RoleAdmin,
		Name:        "Admin",
		Description: "Manage admissions, finances, and communications",
		Permissions: []string{"admissions:manage", "finance:manage", "communications:manage"},
	},
	{
		Key:         RoleSupervisor,
		Name:        "Supervisor",
		Description: "Monitor scholars and submit reports",
		Permissions: []string{"scholar:read", "scholar:update", "meeting:manage"},
	},
	{
		Key:         RoleScholar,
		Name:        "Scholar",
		Description: "Engage with program requirements",
		Permissions: []string{"self:read", "self:update"},
	},
	{
		Key:         RoleDeveloper,
		Name:        "Developer",
		Description: "Build tenant integrations",
		Permissions: []string{"api:access", "webhook:manage"},
	},
}

// HasPermission reports whether the permission snapshot grants the given
// token, either by exact match or via the wildcard.
func HasPermission(permissions []string, permission string) bool {
	for _, p := range permissions {
		if p == Wildcard || p == permission {
			return true
		}
	}
	return false
}

// HasEveryPermission reports whether every token in permissions is granted.
func HasEveryPermission(snapshot []string, permissions []string) bool {
	for _, p := range permissions {
		if !HasPermission(snapshot, p) {
			return false
		}
	}
	return true
}

// DashboardSegment maps a role key to the dashboard path segment it lands on.
// Returns "" for role keys without a dedicated dashboard.
func DashboardSegment(key RoleKey) string {
	switch key {
	case RoleSuperAdmin, RoleAdmin:
		return "admin"
	case RoleSupervisor:
		return "supervisor"
	case RoleScholar:
		return "scholar"
	case RoleDeveloper:
		return "developer"
	default:
		return ""
	}
}
