package auth

import (
	"testing"

	"github.com/provosthq/provost/internal/rbac"
)

func membershipFixture(tenantID, slug string, role rbac.RoleKey, primary bool) Membership {
	return Membership{
		MembershipID: "m-" + tenantID,
		TenantID:     tenantID,
		TenantSlug:   slug,
		TenantName:   slug,
		RoleKey:      role,
		Permissions:  []string{"self:read"},
		Status:       "active",
		Primary:      primary,
	}
}

func TestSelectActiveTenant_Precedence(t *testing.T) {
	alpha := membershipFixture("t-alpha", "alpha", rbac.RoleAdmin, true)
	beta := membershipFixture("t-beta", "beta", rbac.RoleScholar, false)
	gamma := membershipFixture("t-gamma", "gamma", rbac.RoleDeveloper, false)
	memberships := []Membership{alpha, beta, gamma}

	tests := []struct {
		name  string
		hints TenantHints
		want  string
	}{
		{
			name:  "current active tenant wins over everything",
			hints: TenantHints{CurrentActiveTenantID: "t-gamma", RequestedSlug: "beta", StoredDefaultTenantID: "t-alpha"},
			want:  "t-gamma",
		},
		{
			name:  "requested slug beats stored default and primary",
			hints: TenantHints{RequestedSlug: "beta", StoredDefaultTenantID: "t-gamma"},
			want:  "t-beta",
		},
		{
			name:  "stored default beats primary",
			hints: TenantHints{StoredDefaultTenantID: "t-gamma"},
			want:  "t-gamma",
		},
		{
			name:  "primary flag beats creation order",
			hints: TenantHints{},
			want:  "t-alpha",
		},
		{
			name:  "stale current active falls through to requested",
			hints: TenantHints{CurrentActiveTenantID: "t-gone", RequestedSlug: "beta"},
			want:  "t-beta",
		},
		{
			name:  "unknown requested slug falls through to default",
			hints: TenantHints{RequestedSlug: "nowhere", StoredDefaultTenantID: "t-beta"},
			want:  "t-beta",
		},
		{
			name:  "all hints stale falls back to primary",
			hints: TenantHints{CurrentActiveTenantID: "x", RequestedSlug: "y", StoredDefaultTenantID: "z"},
			want:  "t-alpha",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectActiveTenant(memberships, tt.hints); got != tt.want {
				t.Errorf("SelectActiveTenant() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectActiveTenant_CreationOrderFallback(t *testing.T) {
	// No hints, no primary flag: the first membership in creation order wins.
	memberships := []Membership{
		membershipFixture("t-first", "first", rbac.RoleScholar, false),
		membershipFixture("t-second", "second", rbac.RoleScholar, false),
	}
	if got := SelectActiveTenant(memberships, TenantHints{}); got != "t-first" {
		t.Errorf("expected first membership by creation order, got %q", got)
	}
}

func TestSelectActiveTenant_Empty(t *testing.T) {
	if got := SelectActiveTenant(nil, TenantHints{RequestedSlug: "alpha"}); got != "" {
		t.Errorf("expected empty result for no memberships, got %q", got)
	}
}

func TestSelectActiveTenant_Deterministic(t *testing.T) {
	memberships := []Membership{
		membershipFixture("t-alpha", "alpha", rbac.RoleAdmin, false),
		membershipFixture("t-beta", "beta", rbac.RoleScholar, true),
	}
	hints := TenantHints{StoredDefaultTenantID: "t-alpha"}

	first := SelectActiveTenant(memberships, hints)
	for i := 0; i < 10; i++ {
		if got := SelectActiveTenant(memberships, hints); got != first {
			t.Fatalf("selector is not deterministic: %q != %q", got, first)
		}
	}
}

func TestSelectActiveTenant_ScenarioPrimaryVsExplicit(t *testing.T) {
	// Memberships in alpha (ADMIN, primary) and beta (SCHOLAR).
	alpha := membershipFixture("t-alpha", "alpha", rbac.RoleAdmin, true)
	beta := membershipFixture("t-beta", "beta", rbac.RoleScholar, false)
	memberships := []Membership{alpha, beta}

	// No hints at all: primary wins.
	if got := SelectActiveTenant(memberships, TenantHints{}); got != "t-alpha" {
		t.Errorf("expected primary membership alpha, got %q", got)
	}

	// Login carries tenant=beta and there is no current-active hint: beta wins.
	if got := SelectActiveTenant(memberships, TenantHints{RequestedSlug: "beta"}); got != "t-beta" {
		t.Errorf("expected explicit hint beta to override primary, got %q", got)
	}
}
