package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// AuditRepository persists the append-only audit log.
type AuditRepository struct {
	pool *pgxpool.Pool
}

var _ store.AuditLog = (*AuditRepository)(nil)

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_log (id, user_id, user_name, role, action, entity, entity_id, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		e.ID, e.UserID, e.UserName, e.Role, e.Action, e.Entity, e.EntityID, string(raw), e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List applies the filter in SQL. The case restriction mirrors
// AuditEntry.CaseRef: Case entries by entity_id, Task and Document entries
// by metadata.caseId.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	if filter.CaseIDs != nil && len(filter.CaseIDs) == 0 {
		return []domain.AuditEntry{}, nil
	}

	var args queryArgs
	query := `SELECT id, user_id, user_name, role, action, entity, entity_id, metadata, timestamp
		FROM audit_log WHERE TRUE`

	if filter.From != nil {
		query += ` AND timestamp >= ` + args.add(*filter.From)
	}
	if filter.To != nil {
		query += ` AND timestamp <= ` + args.add(*filter.To)
	}
	if filter.CaseIDs != nil {
		ids := args.add(filter.CaseIDs)
		query += ` AND ((entity = 'Case' AND entity_id = ANY(` + ids + `))
			OR (entity IN ('Task', 'Document') AND metadata->>'caseId' = ANY(` + ids + `)))`
	}
	query += ` ORDER BY timestamp DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var e domain.AuditEntry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Role, &e.Action, &e.Entity, &e.EntityID, &raw, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return entries, nil
}
