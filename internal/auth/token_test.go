package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/provosthq/provost/internal/rbac"
)

func testTokenManager(ttl time.Duration) *TokenManager {
	return NewTokenManager("test-secret-0123456789abcdef0123456789abcdef", ttl, "provost-test")
}

func testPrincipal() (*PrincipalRecord, []Membership) {
	memberships := []Membership{
		membershipFixture("t-alpha", "alpha", rbac.RoleSuperAdmin, true),
		membershipFixture("t-beta", "beta", rbac.RoleScholar, false),
	}
	record := &PrincipalRecord{
		ID:              "p-1",
		Email:           "asha@researchx.test",
		DisplayName:     "Asha Patel",
		DefaultTenantID: "t-alpha",
		Memberships:     memberships,
	}
	return record, memberships
}

func TestMintRehydrate_RoundTrip(t *testing.T) {
	tm := testTokenManager(time.Hour)
	record, memberships := testPrincipal()

	token, err := tm.Mint(record, memberships, "t-beta")
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}

	sess, err := tm.Rehydrate(token)
	if err != nil {
		t.Fatalf("Rehydrate() error: %v", err)
	}

	if sess.PrincipalID != record.ID {
		t.Errorf("principal id = %q, want %q", sess.PrincipalID, record.ID)
	}
	if sess.Email != record.Email {
		t.Errorf("email = %q, want %q", sess.Email, record.Email)
	}
	if sess.ActiveTenantID != "t-beta" {
		t.Errorf("active tenant = %q, want t-beta", sess.ActiveTenantID)
	}
	if len(sess.Memberships) != len(memberships) {
		t.Fatalf("membership count = %d, want %d", len(sess.Memberships), len(memberships))
	}
	for i, m := range memberships {
		got := sess.Memberships[i]
		if got.TenantID != m.TenantID || got.RoleKey != m.RoleKey || got.Primary != m.Primary {
			t.Errorf("membership %d = %+v, want %+v", i, got, m)
		}
	}
}

func TestRehydrate_RejectsTamperedToken(t *testing.T) {
	tm := testTokenManager(time.Hour)
	record, memberships := testPrincipal()

	token, err := tm.Mint(record, memberships, "t-alpha")
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}

	other := NewTokenManager("a-completely-different-secret-value-here", time.Hour, "provost-test")
	if _, err := other.Rehydrate(token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for wrong secret, got %v", err)
	}

	if _, err := tm.Rehydrate(token + "x"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for tampered token, got %v", err)
	}

	if _, err := tm.Rehydrate("not-a-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for garbage, got %v", err)
	}
}

func TestRehydrate_RejectsExpiredToken(t *testing.T) {
	tm := testTokenManager(time.Minute)
	record, memberships := testPrincipal()

	token, err := tm.Mint(record, memberships, "t-alpha")
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}

	// Advance the clock past the TTL.
	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = tm.Rehydrate(token)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
	if !IsExpired(err) {
		t.Error("expected expiry to be detectable via IsExpired")
	}
}

func TestWithActiveTenant_SwitchesWithinMemberships(t *testing.T) {
	tm := testTokenManager(time.Hour)
	record, memberships := testPrincipal()

	token, err := tm.Mint(record, memberships, "t-alpha")
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	sess, err := tm.Rehydrate(token)
	if err != nil {
		t.Fatalf("Rehydrate() error: %v", err)
	}

	switched, err := tm.WithActiveTenant(sess, "t-beta")
	if err != nil {
		t.Fatalf("WithActiveTenant() error: %v", err)
	}

	next, err := tm.Rehydrate(switched)
	if err != nil {
		t.Fatalf("Rehydrate(switched) error: %v", err)
	}
	if next.ActiveTenantID != "t-beta" {
		t.Errorf("active tenant after switch = %q, want t-beta", next.ActiveTenantID)
	}
	if next.PrincipalID != sess.PrincipalID || len(next.Memberships) != len(sess.Memberships) {
		t.Error("switch must preserve principal identity and membership snapshot")
	}
}

func TestWithActiveTenant_ForbiddenOutsideMemberships(t *testing.T) {
	tm := testTokenManager(time.Hour)
	record, memberships := testPrincipal()

	token, err := tm.Mint(record, memberships, "t-alpha")
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	sess, err := tm.Rehydrate(token)
	if err != nil {
		t.Fatalf("Rehydrate() error: %v", err)
	}

	if _, err := tm.WithActiveTenant(sess, "t-other"); !errors.Is(err, ErrForbiddenTenantSwitch) {
		t.Errorf("expected ErrForbiddenTenantSwitch, got %v", err)
	}
}
