package auth

import "errors"

var (
	// ErrUnauthenticated means no valid session token was presented: missing,
	// malformed, badly signed, or expired.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidCredentials is the generic login failure. It deliberately does
	// not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoActiveTenants means the credentials were valid but the principal has
	// no active membership anywhere, so no workspace is accessible.
	ErrNoActiveTenants = errors.New("account is not linked to any active tenants")

	// ErrTenantNotAvailable means the tenant requested at login is not among
	// the principal's memberships.
	ErrTenantNotAvailable = errors.New("requested tenant access is not available")

	// ErrForbidden means the session is valid but does not include the
	// requested tenant or role.
	ErrForbidden = errors.New("missing required tenant membership")

	// ErrForbiddenTenantSwitch means a tenant switch targeted a tenant the
	// principal is not a member of.
	ErrForbiddenTenantSwitch = errors.New("cannot switch to a tenant without membership")

	// ErrMissingPermission means the membership's permission snapshot does not
	// grant the required token.
	ErrMissingPermission = errors.New("missing required permission")

	// ErrMembershipSuspended means a live status re-check found the acting
	// membership suspended even though the token snapshot still lists it active.
	ErrMembershipSuspended = errors.New("membership is suspended")
)
