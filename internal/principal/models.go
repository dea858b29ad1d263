package principal

import "time"

// Principal represents a registered user account. A principal may belong to
// several tenants; the bindings live in the membership package.
type Principal struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	DisplayName     string    `json:"display_name"`
	DefaultTenantID string    `json:"default_tenant_id,omitempty"`
	ActiveTenantID  string    `json:"active_tenant_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Name returns the display name, falling back to "first last" and finally to
// the email address.
func (p *Principal) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	full := p.FirstName + " " + p.LastName
	if full != " " {
		return full
	}
	return p.Email
}

// CreatePrincipalInput holds the fields required to create a new principal.
// PasswordHash must already be hashed; stores never see plaintext passwords.
type CreatePrincipalInput struct {
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	DisplayName     string
	DefaultTenantID string
	ActiveTenantID  string
}
