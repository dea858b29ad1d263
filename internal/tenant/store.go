package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/provosthq/provost/internal/membership"
	"github.com/provosthq/provost/internal/rbac"
)

// ErrNotFound is returned when no tenant matches the lookup.
var ErrNotFound = errors.New("tenant not found")

// ErrSlugInUse is returned when provisioning a tenant whose slug is taken.
var ErrSlugInUse = errors.New("tenant slug already in use")

// ErrEmailInUse is returned when the founding principal's email already
// belongs to an account.
var ErrEmailInUse = errors.New("email already in use")

// Store provides database operations for tenants, including the provisioning
// transaction that creates a tenant with its role set and founding member.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new tenant store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetBySlug retrieves a tenant by its URL slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	t := &Tenant{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, slug, name, created_at, updated_at
		 FROM tenants WHERE slug = $1`, slug,
	).Scan(&t.ID, &t.Slug, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting tenant by slug: %w", err)
	}
	return t, nil
}

// GetByID retrieves a tenant by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Tenant, error) {
	t := &Tenant{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, slug, name, created_at, updated_at
		 FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Slug, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting tenant by id: %w", err)
	}
	return t, nil
}

// Provision creates a tenant, seeds its fixed role set, creates the founding
// principal, and grants them a primary SUPER_ADMIN membership. The whole
// sequence runs in one transaction; a failure at any step leaves nothing
// behind.
func (s *Store) Provision(ctx context.Context, in ProvisionInput) (*ProvisionResult, error) {
	slug := NormalizeSlug(in.TenantSlug)
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning provision transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &ProvisionResult{TenantSlug: slug}

	err = tx.QueryRow(ctx,
		`INSERT INTO tenants (slug, name) VALUES ($1, $2) RETURNING id`,
		slug, strings.TrimSpace(in.TenantName),
	).Scan(&result.TenantID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugInUse
		}
		return nil, fmt.Errorf("creating tenant: %w", err)
	}

	var superAdminRoleID string
	var superAdminPermissions []byte
	for _, seed := range rbac.SeedTable {
		permissionsJSON, err := json.Marshal(seed.Permissions)
		if err != nil {
			return nil, fmt.Errorf("marshaling permissions for %s: %w", seed.Key, err)
		}
		var roleID string
		err = tx.QueryRow(ctx,
			`INSERT INTO roles (tenant_id, key, name, description, permissions)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			result.TenantID, seed.Key, seed.Name, seed.Description, permissionsJSON,
		).Scan(&roleID)
		if err != nil {
			return nil, fmt.Errorf("seeding role %s: %w", seed.Key, err)
		}
		if seed.Key == rbac.RoleSuperAdmin {
			superAdminRoleID = roleID
			superAdminPermissions = permissionsJSON
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO principals (email, password_hash, first_name, last_name, display_name, default_tenant_id, active_tenant_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		strings.ToLower(strings.TrimSpace(in.Email)), in.PasswordHash,
		in.FirstName, in.LastName, in.DisplayName, result.TenantID,
	).Scan(&result.PrincipalID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("creating founding principal: %w", err)
	}

	// The membership carries its own permission snapshot, copied from the
	// role at assignment.
	err = tx.QueryRow(ctx,
		`INSERT INTO memberships (principal_id, tenant_id, role_id, status, is_primary, permissions)
		 VALUES ($1, $2, $3, $4, true, $5) RETURNING id`,
		result.PrincipalID, result.TenantID, superAdminRoleID, membership.StatusActive, superAdminPermissions,
	).Scan(&result.MembershipID)
	if err != nil {
		return nil, fmt.Errorf("creating founding membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing provision transaction: %w", err)
	}
	return result, nil
}

// RoleID resolves a seeded role's primary key within a tenant.
func (s *Store) RoleID(ctx context.Context, tenantID string, key rbac.RoleKey) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM roles WHERE tenant_id = $1 AND key = $2`, tenantID, string(key),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("role %s not seeded for tenant %s", key, tenantID)
	}
	if err != nil {
		return "", fmt.Errorf("resolving role %s: %w", key, err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
