package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink appends entries to the audit_entries table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink returns a sink writing through the given pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Record persists the entry. The table is insert-only; there is no update
// or delete path.
func (s *PostgresSink) Record(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("audit: encode details: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, tenant_id, actor_id, action, target, details, success, created_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TenantID, entry.ActorID, entry.Action, entry.Target, details, entry.Success, entry.CreatedAt)
	if err != nil {
		return errors.Join(ErrSinkUnavailable, err)
	}
	return nil
}
