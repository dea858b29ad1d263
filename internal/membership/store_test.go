package membership

import (
	"context"
	"errors"
	"testing"
)

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusActive, true},
		{StatusSuspended, true},
		{"deleted", false},
		{"ACTIVE", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidStatus(tt.status); got != tt.want {
			t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// The status and self-modification guards must reject before any query runs;
// a nil pool proves no round trip happened.
func TestUpdateStatus_GuardsBeforeQuery(t *testing.T) {
	s := &Store{}

	if _, err := s.UpdateStatus(context.Background(), "t-1", "m-1", "m-9", "deleted"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("invalid status: error = %v, want ErrInvalidStatus", err)
	}

	// Suspending your own membership is rejected regardless of the target
	// status, including a no-op re-activate.
	for _, status := range []string{StatusSuspended, StatusActive} {
		if _, err := s.UpdateStatus(context.Background(), "t-1", "m-1", "m-1", status); !errors.Is(err, ErrSelfStatusChange) {
			t.Errorf("self change to %q: error = %v, want ErrSelfStatusChange", status, err)
		}
	}
}

// fakeRow simulates a scanned membership row so the decode path can be tested
// without a database.
func fakeMembershipRow(permissionsJSON string) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = "m-1"
		*(dest[1].(*string)) = "p-1"
		*(dest[2].(*string)) = "t-1"
		*(dest[3].(*string)) = "r-1"
		if permissionsJSON != "" {
			*(dest[4].(*[]byte)) = []byte(permissionsJSON)
		}
		*(dest[5].(*string)) = StatusActive
		*(dest[6].(*bool)) = true
		return nil
	}
}

// The row's permission snapshot must survive the scan as-is: it is what was
// copied from the role at assignment, not a live join.
func TestScanMembership_DecodesPermissionSnapshot(t *testing.T) {
	m, err := scanMembership(fakeMembershipRow(`["scholar:read","scholar:update"]`))
	if err != nil {
		t.Fatalf("scanMembership() error: %v", err)
	}
	if len(m.Permissions) != 2 || m.Permissions[0] != "scholar:read" {
		t.Errorf("permissions = %v, want the stored snapshot", m.Permissions)
	}

	// NULL snapshot decodes to an empty set, never nil.
	m, err = scanMembership(fakeMembershipRow(""))
	if err != nil {
		t.Fatalf("scanMembership() on NULL snapshot: %v", err)
	}
	if m.Permissions == nil || len(m.Permissions) != 0 {
		t.Errorf("permissions = %#v, want empty non-nil set", m.Permissions)
	}
}

func TestScanMembership_RejectsMalformedSnapshot(t *testing.T) {
	if _, err := scanMembership(fakeMembershipRow(`{"not":"a list"}`)); err == nil {
		t.Error("expected an error for a malformed snapshot")
	}
}

func TestCreate_RejectsInvalidStatus(t *testing.T) {
	s := &Store{}
	_, err := s.Create(context.Background(), CreateMembershipInput{
		PrincipalID: "p-1",
		TenantID:    "t-1",
		RoleID:      "r-1",
		Status:      "banned",
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("error = %v, want ErrInvalidStatus", err)
	}
}
