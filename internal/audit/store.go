package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for the audit trail.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new audit store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BatchInsert writes a batch of events in one round trip.
func (s *Store) BatchInsert(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		contextJSON, err := json.Marshal(e.Context)
		if err != nil {
			return fmt.Errorf("marshaling audit context: %w", err)
		}
		batch.Queue(
			`INSERT INTO audit_log (tenant_id, principal_id, action, context, created_at)
			 VALUES (nullif($1, '')::uuid, nullif($2, '')::uuid, $3, $4, $5)`,
			e.TenantID, e.PrincipalID, e.Action, contextJSON, e.CreatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting audit events: %w", err)
		}
	}
	return nil
}

// ListRecent returns the newest events for a tenant, newest first.
func (s *Store) ListRecent(ctx context.Context, tenantID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, coalesce(principal_id::text, ''), action, context, created_at
		 FROM audit_log WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var contextJSON []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.PrincipalID, &e.Action, &contextJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &e.Context); err != nil {
				return nil, fmt.Errorf("unmarshaling audit context: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
