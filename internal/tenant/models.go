package tenant

import "time"

// Tenant is one research program's isolated workspace.
type Tenant struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProvisionInput holds everything needed to stand up a new tenant and its
// founding principal in one transaction.
type ProvisionInput struct {
	TenantName   string
	TenantSlug   string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	DisplayName  string
}

// ProvisionResult identifies the rows created by a successful provision.
type ProvisionResult struct {
	TenantID     string `json:"tenantId"`
	TenantSlug   string `json:"tenantSlug"`
	PrincipalID  string `json:"principalId"`
	MembershipID string `json:"membershipId"`
}
