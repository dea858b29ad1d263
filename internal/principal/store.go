package principal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no principal matches the lookup.
var ErrNotFound = errors.New("principal not found")

// ErrEmailInUse is returned when creating a principal with an email that
// already exists.
var ErrEmailInUse = errors.New("email already in use")

// Store provides database operations for principals.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new principal store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// scanPrincipal scans a principal row, handling nullable tenant references.
func scanPrincipal(scan func(dest ...any) error) (*Principal, error) {
	p := &Principal{}
	var defaultTenant, activeTenant *string
	err := scan(&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName,
		&p.DisplayName, &defaultTenant, &activeTenant, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if defaultTenant != nil {
		p.DefaultTenantID = *defaultTenant
	}
	if activeTenant != nil {
		p.ActiveTenantID = *activeTenant
	}
	return p, nil
}

const principalColumns = `id, email, coalesce(password_hash, ''), first_name, last_name,
	 display_name, default_tenant_id, active_tenant_id, created_at, updated_at`

// GetByEmail retrieves a principal by email address. The lookup is
// case-insensitive; emails are stored lowercased.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	p, err := scanPrincipal(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+principalColumns+`
			 FROM principals WHERE email = $1`,
			strings.ToLower(strings.TrimSpace(email)),
		).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting principal by email: %w", err)
	}
	return p, nil
}

// GetByID retrieves a principal by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Principal, error) {
	p, err := scanPrincipal(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+principalColumns+`
			 FROM principals WHERE id = $1`, id,
		).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting principal by id: %w", err)
	}
	return p, nil
}

// Create inserts a new principal. The input must carry an already-hashed
// password.
func (s *Store) Create(ctx context.Context, in CreatePrincipalInput) (*Principal, error) {
	p, err := scanPrincipal(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO principals (email, password_hash, first_name, last_name, display_name, default_tenant_id, active_tenant_id)
			 VALUES ($1, $2, $3, $4, $5, nullif($6, ''), nullif($7, ''))
			 RETURNING `+principalColumns,
			strings.ToLower(strings.TrimSpace(in.Email)), in.PasswordHash,
			in.FirstName, in.LastName, in.DisplayName,
			in.DefaultTenantID, in.ActiveTenantID,
		).Scan(dest...)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("creating principal: %w", err)
	}
	return p, nil
}

// SetActiveTenant persists the principal's last-used tenant so future logins
// land there by default.
func (s *Store) SetActiveTenant(ctx context.Context, principalID, tenantID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE principals SET active_tenant_id = nullif($2, ''), updated_at = now()
		 WHERE id = $1`,
		principalID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("setting active tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
