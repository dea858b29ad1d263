package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/provosthq/provost/internal/rbac"
)

func sessionFixture() *Session {
	return &Session{
		PrincipalID:    "p-1",
		Email:          "asha@researchx.test",
		ActiveTenantID: "t-alpha",
		Memberships: []Membership{
			membershipFixture("t-alpha", "alpha", rbac.RoleAdmin, true),
			membershipFixture("t-beta", "beta", rbac.RoleScholar, false),
		},
	}
}

func TestRequireSession(t *testing.T) {
	sess := sessionFixture()
	ctx := ContextWithSession(context.Background(), sess)

	got, err := RequireSession(ctx)
	if err != nil {
		t.Fatalf("RequireSession() error: %v", err)
	}
	if got.PrincipalID != sess.PrincipalID {
		t.Errorf("principal = %q, want %q", got.PrincipalID, sess.PrincipalID)
	}

	if _, err := RequireSession(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated on bare context, got %v", err)
	}
}

func TestRequireMembership(t *testing.T) {
	sess := sessionFixture()

	tests := []struct {
		name     string
		criteria MembershipCriteria
		want     string
		wantErr  error
	}{
		{"by tenant id", MembershipCriteria{TenantID: "t-beta"}, "t-beta", nil},
		{"by tenant slug", MembershipCriteria{TenantSlug: "alpha"}, "t-alpha", nil},
		{"unknown tenant id", MembershipCriteria{TenantID: "t-other"}, "", ErrForbidden},
		{"unknown slug", MembershipCriteria{TenantSlug: "other"}, "", ErrForbidden},
		{"empty criteria", MembershipCriteria{}, "", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := RequireMembership(sess, tt.criteria)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequireMembership() error: %v", err)
			}
			if m.TenantID != tt.want {
				t.Errorf("tenant = %q, want %q", m.TenantID, tt.want)
			}
			// The returned membership must always match the criteria.
			if tt.criteria.TenantSlug != "" && m.TenantSlug != tt.criteria.TenantSlug {
				t.Errorf("slug = %q, want %q", m.TenantSlug, tt.criteria.TenantSlug)
			}
		})
	}
}

func TestAssertAnyRole(t *testing.T) {
	admin := membershipFixture("t-alpha", "alpha", rbac.RoleAdmin, true)
	scholar := membershipFixture("t-beta", "beta", rbac.RoleScholar, false)

	if err := AssertAnyRole(&admin, rbac.ManagementRoles...); err != nil {
		t.Errorf("admin should satisfy management roles: %v", err)
	}
	if err := AssertAnyRole(&scholar, rbac.ManagementRoles...); !errors.Is(err, ErrForbidden) {
		t.Errorf("scholar must not satisfy management roles, got %v", err)
	}
}

func TestAssertPermission(t *testing.T) {
	m := membershipFixture("t-alpha", "alpha", rbac.RoleAdmin, true)
	m.Permissions = []string{"finance:manage"}

	if err := AssertPermission(&m, "finance:manage"); err != nil {
		t.Errorf("expected permission grant: %v", err)
	}
	if err := AssertPermission(&m, "webhook:manage"); !errors.Is(err, ErrMissingPermission) {
		t.Errorf("expected ErrMissingPermission, got %v", err)
	}

	m.Permissions = []string{rbac.Wildcard}
	if err := AssertPermission(&m, "anything:whatsoever"); err != nil {
		t.Errorf("wildcard must grant everything: %v", err)
	}
}

// --- live status re-verification ---

type mockStatusChecker struct {
	statuses map[string]string
}

func (m *mockStatusChecker) MembershipStatus(_ context.Context, membershipID string) (string, error) {
	status, ok := m.statuses[membershipID]
	if !ok {
		return "", errors.New("no rows")
	}
	return status, nil
}

func TestGuard_RequireLiveMembership(t *testing.T) {
	sess := sessionFixture()

	tests := []struct {
		name     string
		statuses map[string]string
		criteria MembershipCriteria
		wantErr  error
	}{
		{
			name:     "live active membership passes",
			statuses: map[string]string{"m-t-alpha": "active"},
			criteria: MembershipCriteria{TenantSlug: "alpha"},
		},
		{
			name:     "suspended mid-session is blocked despite snapshot",
			statuses: map[string]string{"m-t-alpha": "suspended"},
			criteria: MembershipCriteria{TenantSlug: "alpha"},
			wantErr:  ErrMembershipSuspended,
		},
		{
			name:     "membership deleted from store is forbidden",
			statuses: map[string]string{},
			criteria: MembershipCriteria{TenantSlug: "alpha"},
			wantErr:  ErrForbidden,
		},
		{
			name:     "tenant absent from snapshot fails before the store read",
			statuses: map[string]string{},
			criteria: MembershipCriteria{TenantSlug: "nowhere"},
			wantErr:  ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(&mockStatusChecker{statuses: tt.statuses})
			_, err := g.RequireLiveMembership(context.Background(), sess, tt.criteria)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("RequireLiveMembership() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGuard_NilStatusCheckerDegradesToSnapshot(t *testing.T) {
	g := NewGuard(nil)
	sess := sessionFixture()

	if _, err := g.RequireLiveMembership(context.Background(), sess, MembershipCriteria{TenantSlug: "alpha"}); err != nil {
		t.Errorf("snapshot-only check should pass: %v", err)
	}
}

func TestDashboardPath(t *testing.T) {
	tests := []struct {
		name string
		sess *Session
		want string
	}{
		{
			name: "active membership drives the path",
			sess: sessionFixture(), // active tenant t-alpha, ADMIN
			want: "/alpha/admin",
		},
		{
			name: "scholar role lands on scholar dashboard",
			sess: &Session{
				ActiveTenantID: "t-beta",
				Memberships: []Membership{
					membershipFixture("t-alpha", "alpha", rbac.RoleAdmin, false),
					membershipFixture("t-beta", "beta", rbac.RoleScholar, false),
				},
			},
			want: "/beta/scholar",
		},
		{
			name: "stale active tenant falls back to primary",
			sess: &Session{
				ActiveTenantID: "t-gone",
				Memberships: []Membership{
					membershipFixture("t-alpha", "alpha", rbac.RoleSupervisor, false),
					membershipFixture("t-beta", "beta", rbac.RoleDeveloper, true),
				},
			},
			want: "/beta/developer",
		},
		{
			name: "no memberships goes home",
			sess: &Session{},
			want: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DashboardPath(tt.sess); got != tt.want {
				t.Errorf("DashboardPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
