package principal

import (
	"context"

	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/membership"
)

// AuthAdapter adapts the principal and membership stores to the
// auth.PrincipalLookup interface.
type AuthAdapter struct {
	principals  *Store
	memberships *membership.Store
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given stores.
func NewAuthAdapter(principals *Store, memberships *membership.Store) *AuthAdapter {
	return &AuthAdapter{principals: principals, memberships: memberships}
}

// FindByEmail loads a principal and their active memberships, shaped for
// credential verification and token minting.
func (a *AuthAdapter) FindByEmail(ctx context.Context, email string) (*auth.PrincipalRecord, error) {
	p, err := a.principals.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	views, err := a.memberships.ListActiveForPrincipal(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	memberships := make([]auth.Membership, len(views))
	for i, v := range views {
		memberships[i] = auth.Membership{
			MembershipID: v.MembershipID,
			TenantID:     v.TenantID,
			TenantSlug:   v.TenantSlug,
			TenantName:   v.TenantName,
			RoleID:       v.RoleID,
			RoleKey:      v.RoleKey,
			RoleName:     v.RoleName,
			Permissions:  v.Permissions,
			Status:       v.Status,
			Primary:      v.Primary,
		}
	}

	return &auth.PrincipalRecord{
		ID:              p.ID,
		Email:           p.Email,
		DisplayName:     p.Name(),
		PasswordHash:    p.PasswordHash,
		DefaultTenantID: p.DefaultTenantID,
		ActiveTenantID:  p.ActiveTenantID,
		Memberships:     memberships,
	}, nil
}
