package auth

// TenantHints carries the optional signals that influence which tenant
// becomes active for a session.
type TenantHints struct {
	// RequestedSlug is the tenant slug supplied explicitly at login.
	RequestedSlug string
	// StoredDefaultTenantID is the principal's persisted default tenant.
	StoredDefaultTenantID string
	// CurrentActiveTenantID is the tenant already active for the principal,
	// kept so an existing session is never silently moved to another tenant.
	CurrentActiveTenantID string
}

// SelectActiveTenant deterministically picks the active tenant for a set of
// memberships. Precedence, first match wins:
//
//  1. the current active tenant, if still a membership
//  2. the explicitly requested tenant slug
//  3. the stored default tenant
//  4. the membership flagged primary
//  5. the first membership in creation order
//
// Returns "" when memberships is empty. The function is pure: no I/O, same
// output for the same inputs.
func SelectActiveTenant(memberships []Membership, hints TenantHints) string {
	if len(memberships) == 0 {
		return ""
	}

	if hints.CurrentActiveTenantID != "" {
		for _, m := range memberships {
			if m.TenantID == hints.CurrentActiveTenantID {
				return m.TenantID
			}
		}
	}

	if hints.RequestedSlug != "" {
		for _, m := range memberships {
			if m.TenantSlug == hints.RequestedSlug {
				return m.TenantID
			}
		}
	}

	if hints.StoredDefaultTenantID != "" {
		for _, m := range memberships {
			if m.TenantID == hints.StoredDefaultTenantID {
				return m.TenantID
			}
		}
	}

	for _, m := range memberships {
		if m.Primary {
			return m.TenantID
		}
	}

	return memberships[0].TenantID
}
