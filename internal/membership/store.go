package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no membership matches within the given tenant.
// A membership that exists under a different tenant is deliberately reported
// as not found, never as a cross-tenant conflict.
var ErrNotFound = errors.New("membership not found")

// ErrSelfStatusChange is returned when a principal tries to change the status
// of their own membership.
var ErrSelfStatusChange = errors.New("cannot change the status of your own membership")

// ErrInvalidStatus is returned for a status outside the accepted set.
var ErrInvalidStatus = errors.New("invalid membership status")

// ErrAlreadyMember is returned when the principal already holds a membership
// in the tenant.
var ErrAlreadyMember = errors.New("principal is already a member of this tenant")

// Store provides database operations for tenant memberships.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new membership store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// decodePermissions unmarshals a JSONB permission snapshot, mapping NULL and
// empty to an empty set rather than nil.
func decodePermissions(raw []byte) ([]string, error) {
	var permissions []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &permissions); err != nil {
			return nil, fmt.Errorf("unmarshaling permissions: %w", err)
		}
	}
	if permissions == nil {
		permissions = []string{}
	}
	return permissions, nil
}

// scanView scans a joined membership row, handling the JSONB permission
// snapshot on the membership.
func scanView(scan func(dest ...any) error) (*View, error) {
	v := &View{}
	var permissionsJSON []byte
	err := scan(&v.MembershipID, &v.TenantID, &v.TenantSlug, &v.TenantName,
		&v.RoleID, &v.RoleKey, &v.RoleName, &permissionsJSON, &v.Status, &v.Primary)
	if err != nil {
		return nil, err
	}
	v.Permissions, err = decodePermissions(permissionsJSON)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListActiveForPrincipal returns the principal's active memberships joined to
// tenant and role, oldest membership first. Suspended memberships never
// appear here and therefore never enter a session token. Permissions come
// from the membership's own snapshot, not the role.
func (s *Store) ListActiveForPrincipal(ctx context.Context, principalID string) ([]View, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.id, t.id, t.slug, t.name,
		        r.id, r.key, r.name, m.permissions, m.status, m.is_primary
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id
		 JOIN roles r ON r.id = m.role_id
		 WHERE m.principal_id = $1 AND m.status = $2
		 ORDER BY m.created_at ASC`,
		principalID, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		v, err := scanView(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

const summaryColumns = `m.id, p.id, p.email,
	        coalesce(nullif(p.display_name, ''), nullif(trim(p.first_name || ' ' || p.last_name), ''), p.email),
	        r.key, r.name, m.status, m.is_primary, m.created_at`

// ListForTenant returns every membership in the tenant as an admin roster
// entry, oldest first.
func (s *Store) ListForTenant(ctx context.Context, tenantID string) ([]MemberSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+summaryColumns+`
		 FROM memberships m
		 JOIN principals p ON p.id = m.principal_id
		 JOIN roles r ON r.id = m.role_id
		 WHERE m.tenant_id = $1
		 ORDER BY m.created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing tenant members: %w", err)
	}
	defer rows.Close()

	var members []MemberSummary
	for rows.Next() {
		var m MemberSummary
		if err := rows.Scan(&m.MembershipID, &m.PrincipalID, &m.Email, &m.DisplayName,
			&m.RoleKey, &m.RoleName, &m.Status, &m.Primary, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetSummary returns one roster entry scoped to the tenant.
func (s *Store) GetSummary(ctx context.Context, tenantID, membershipID string) (*MemberSummary, error) {
	var m MemberSummary
	err := s.pool.QueryRow(ctx,
		`SELECT `+summaryColumns+`
		 FROM memberships m
		 JOIN principals p ON p.id = m.principal_id
		 JOIN roles r ON r.id = m.role_id
		 WHERE m.tenant_id = $1 AND m.id = $2`, tenantID, membershipID,
	).Scan(&m.MembershipID, &m.PrincipalID, &m.Email, &m.DisplayName,
		&m.RoleKey, &m.RoleName, &m.Status, &m.Primary, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting member: %w", err)
	}
	return &m, nil
}

// UpdateStatus sets the status of a membership within the tenant. Updating a
// membership that belongs to another tenant reports ErrNotFound. Principals
// cannot change their own membership.
func (s *Store) UpdateStatus(ctx context.Context, tenantID, membershipID, actingMembershipID, status string) (*MemberSummary, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if membershipID == actingMembershipID {
		return nil, ErrSelfStatusChange
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE memberships SET status = $3, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, membershipID, status)
	if err != nil {
		return nil, fmt.Errorf("updating membership status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetSummary(ctx, tenantID, membershipID)
}

// scanMembership scans a membership row, handling the JSONB permission
// snapshot.
func scanMembership(scan func(dest ...any) error) (*Membership, error) {
	m := &Membership{}
	var permissionsJSON []byte
	err := scan(&m.ID, &m.PrincipalID, &m.TenantID, &m.RoleID, &permissionsJSON,
		&m.Status, &m.Primary, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Permissions, err = decodePermissions(permissionsJSON)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create binds a principal to a tenant with the given role, copying the
// role's permissions onto the membership as its snapshot.
func (s *Store) Create(ctx context.Context, in CreateMembershipInput) (*Membership, error) {
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	m, err := scanMembership(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO memberships (principal_id, tenant_id, role_id, status, is_primary, permissions)
			 SELECT $1, $2, r.id, $4, $5, r.permissions FROM roles r WHERE r.id = $3
			 RETURNING id, principal_id, tenant_id, role_id, permissions, status, is_primary, created_at, updated_at`,
			in.PrincipalID, in.TenantID, in.RoleID, status, in.Primary,
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("creating membership: role %s not found", in.RoleID)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("creating membership: %w", err)
	}
	return m, nil
}

// MembershipStatus returns the current stored status of a membership. It
// backs live re-verification for sensitive operations, so a suspension takes
// effect even against a session minted before it.
func (s *Store) MembershipStatus(ctx context.Context, membershipID string) (string, error) {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM memberships WHERE id = $1`, membershipID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting membership status: %w", err)
	}
	return status, nil
}
