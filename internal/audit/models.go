package audit

import "time"

// Actions recorded in the audit trail.
const (
	ActionSignIn            = "AUTH_SIGN_IN"
	ActionSignOut           = "AUTH_SIGN_OUT"
	ActionTenantSwitched    = "AUTH_TENANT_SWITCHED"
	ActionTenantProvisioned = "TENANT_PROVISIONED"
	ActionStatusUpdated     = "MEMBERSHIP_STATUS_UPDATED"
)

// Event is one audit trail entry. Context carries action-specific details and
// is stored as JSONB.
type Event struct {
	ID          string         `json:"id,omitempty"`
	TenantID    string         `json:"tenantId,omitempty"`
	PrincipalID string         `json:"principalId,omitempty"`
	Action      string         `json:"action"`
	Context     map[string]any `json:"context,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
