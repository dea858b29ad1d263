package auth

import (
	"context"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PrincipalRecord is the store's view of a principal at login time: the
// credential hash plus the active memberships joined to tenant and role.
type PrincipalRecord struct {
	ID              string
	Email           string
	DisplayName     string
	PasswordHash    string
	DefaultTenantID string
	ActiveTenantID  string
	// Memberships holds only status=active entries, in creation order.
	Memberships []Membership
}

// PrincipalLookup is the interface for loading a principal and their active
// memberships by email.
type PrincipalLookup interface {
	FindByEmail(ctx context.Context, email string) (*PrincipalRecord, error)
}

// Verifier checks email/password credentials against the store.
type Verifier struct {
	store PrincipalLookup
}

// NewVerifier creates a Verifier backed by the given principal lookup.
func NewVerifier(store PrincipalLookup) *Verifier {
	return &Verifier{store: store}
}

// Verify checks the credential pair and returns the principal record with
// their active memberships. All credential failures collapse into
// ErrInvalidCredentials so callers cannot enumerate accounts. A valid
// credential with zero active memberships fails with ErrNoActiveTenants.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*PrincipalRecord, error) {
	if password == "" {
		return nil, ErrInvalidCredentials
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	record, err := v.store.FindByEmail(ctx, strings.ToLower(addr.Address))
	if err != nil || record == nil {
		return nil, ErrInvalidCredentials
	}

	// External-only accounts have no local credential hash.
	if record.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if len(record.Memberships) == 0 {
		return nil, ErrNoActiveTenants
	}

	return record, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
