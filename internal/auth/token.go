package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload: the principal's identity, the membership
// snapshot, and the active tenant id.
type Claims struct {
	Email           string       `json:"email"`
	DisplayName     string       `json:"displayName,omitempty"`
	DefaultTenantID string       `json:"defaultTenantId,omitempty"`
	ActiveTenantID  string       `json:"activeTenantId,omitempty"`
	Memberships     []Membership `json:"memberships"`
	jwt.RegisteredClaims
}

// TokenManager mints and rehydrates signed, stateless session tokens. The
// token is self-describing: nothing is looked up server-side on rehydrate,
// and the embedded membership snapshot may be stale relative to the store.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time // injectable clock for testing
}

// NewTokenManager creates a TokenManager signing with the given secret.
func NewTokenManager(secret string, ttl time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Mint serializes the principal, their membership snapshot, and the active
// tenant into a signed token.
func (tm *TokenManager) Mint(p *PrincipalRecord, memberships []Membership, activeTenantID string) (string, error) {
	now := tm.now()
	claims := &Claims{
		Email:           p.Email,
		DisplayName:     p.DisplayName,
		DefaultTenantID: p.DefaultTenantID,
		ActiveTenantID:  activeTenantID,
		Memberships:     memberships,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Rehydrate parses and validates a token, reconstructing the session it
// encodes. Invalid signatures and expired timestamps surface as
// ErrUnauthenticated.
func (tm *TokenManager) Rehydrate(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	memberships := claims.Memberships
	if memberships == nil {
		memberships = []Membership{}
	}

	return &Session{
		PrincipalID:     claims.Subject,
		Email:           claims.Email,
		DisplayName:     claims.DisplayName,
		DefaultTenantID: claims.DefaultTenantID,
		ActiveTenantID:  claims.ActiveTenantID,
		Memberships:     memberships,
	}, nil
}

// WithActiveTenant re-mints the session's token with a new active tenant.
// The target must be present in the session's membership snapshot; otherwise
// the switch fails with ErrForbiddenTenantSwitch.
func (tm *TokenManager) WithActiveTenant(sess *Session, newTenantID string) (string, error) {
	membership := sess.MembershipByTenantID(newTenantID)
	if membership == nil {
		return "", ErrForbiddenTenantSwitch
	}

	record := &PrincipalRecord{
		ID:              sess.PrincipalID,
		Email:           sess.Email,
		DisplayName:     sess.DisplayName,
		DefaultTenantID: sess.DefaultTenantID,
	}
	return tm.Mint(record, sess.Memberships, membership.TenantID)
}

// IsExpired reports whether the error from Rehydrate was caused by token
// expiry rather than a bad signature. Both reject the session; this only
// exists for logging.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
