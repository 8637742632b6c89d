package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

const caseColumns = `c.id, c.title, c.description, c.client_id, c.assigned_attorney, c.assistants,
	c.status, c.priority, c.start_date, c.deadline, c.tags, c.created_by, c.created_at, c.updated_at`

type CaseRepository struct {
	pool *pgxpool.Pool
}

var _ store.Cases = (*CaseRepository)(nil)

func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

func scanCase(row pgx.Row) (*domain.Case, error) {
	var c domain.Case
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.ClientID, &c.AssignedAttorney, &c.Assistants,
		&c.Status, &c.Priority, &c.StartDate, &c.Deadline, &c.Tags,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Assistants == nil {
		c.Assistants = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) error {
	query := `
		INSERT INTO cases (
			id, title, description, client_id, assigned_attorney, assistants,
			status, priority, start_date, deadline, tags, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Title, c.Description, c.ClientID, c.AssignedAttorney, nonNil(c.Assistants),
		c.Status, c.Priority, c.StartDate, c.Deadline, nonNil(c.Tags), c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (r *CaseRepository) Get(ctx context.Context, id string) (*domain.Case, error) {
	c, err := scanCase(r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCaseNotFound
		}
		return nil, fmt.Errorf("query case: %w", err)
	}
	return c, nil
}

func (r *CaseRepository) GetMany(ctx context.Context, ids []string) (map[string]*domain.Case, error) {
	out := make(map[string]*domain.Case, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+caseColumns+` FROM cases c WHERE c.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

// List retrieves the cases visible through scope, newest first.
func (r *CaseRepository) List(ctx context.Context, scope access.Scope, params domain.ListCasesParams, limit int) ([]domain.Case, error) {
	params.Normalize()

	var args queryArgs
	query := `SELECT ` + caseColumns + ` FROM cases c WHERE ` + caseScopeSQL(scope, &args)

	// Filtros opcionais
	if params.Status != nil {
		query += ` AND c.status = ` + args.add(*params.Status)
	}
	if params.Priority != nil {
		query += ` AND c.priority = ` + args.add(*params.Priority)
	}
	if params.Search != nil {
		query += ` AND c.title ILIKE ` + args.add(likePattern(*params.Search))
	}

	query += ` ORDER BY c.created_at DESC, c.id DESC`
	if limit > 0 {
		query += ` LIMIT ` + args.add(limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	cases := make([]domain.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

func (r *CaseRepository) IDs(ctx context.Context, scope access.Scope) ([]string, error) {
	var args queryArgs
	query := `SELECT c.id FROM cases c WHERE ` + caseScopeSQL(scope, &args)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query case ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect case ids: %w", err)
	}
	return ids, nil
}

func (r *CaseRepository) Update(ctx context.Context, c *domain.Case) error {
	query := `
		UPDATE cases
		SET title = $2, description = $3, client_id = $4, assigned_attorney = $5, assistants = $6,
		    status = $7, priority = $8, start_date = $9, deadline = $10, tags = $11, updated_at = $12
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.Title, c.Description, c.ClientID, c.AssignedAttorney, nonNil(c.Assistants),
		c.Status, c.Priority, c.StartDate, c.Deadline, nonNil(c.Tags), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrCaseNotFound
	}
	return nil
}

// AddAssistant appends userID unless already present; the check and the
// write are one statement so concurrent adds cannot duplicate.
func (r *CaseRepository) AddAssistant(ctx context.Context, caseID, userID string) (bool, error) {
	query := `
		UPDATE cases
		SET assistants = array_append(assistants, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(assistants))
	`
	tag, err := r.pool.Exec(ctx, query, caseID, userID)
	if err != nil {
		return false, fmt.Errorf("add assistant: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	return false, r.exists(ctx, caseID)
}

func (r *CaseRepository) RemoveAssistant(ctx context.Context, caseID, userID string) (bool, error) {
	query := `
		UPDATE cases
		SET assistants = array_remove(assistants, $2), updated_at = now()
		WHERE id = $1 AND $2 = ANY(assistants)
	`
	tag, err := r.pool.Exec(ctx, query, caseID, userID)
	if err != nil {
		return false, fmt.Errorf("remove assistant: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	return false, r.exists(ctx, caseID)
}

func (r *CaseRepository) exists(ctx context.Context, caseID string) error {
	var found bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1)`, caseID).Scan(&found); err != nil {
		return fmt.Errorf("query case: %w", err)
	}
	if !found {
		return store.ErrCaseNotFound
	}
	return nil
}

// Delete removes the case row only; tasks and documents stay behind.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrCaseNotFound
	}
	return nil
}
