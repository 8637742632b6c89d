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

const taskColumns = `t.id, t.case_id, t.title, t.status, t.due_date, t.assigned_to, t.category, t.created_at, t.updated_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

var _ store.Tasks = (*TaskRepository)(nil)

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.CaseID, &t.Title, &t.Status, &t.DueDate, &t.AssignedTo, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (id, case_id, title, status, due_date, assigned_to, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query, t.ID, t.CaseID, t.Title, t.Status, t.DueDate, t.AssignedTo, t.Category, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return t, nil
}

// List resolves visibility through the parent case joined as c. Orphaned
// tasks have no case row and only match the admin or assignee clause.
func (r *TaskRepository) List(ctx context.Context, scope access.Scope, params domain.ListTasksParams) ([]domain.Task, error) {
	var args queryArgs
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		LEFT JOIN cases c ON c.id = t.case_id
		WHERE ` + taskScopeSQL(scope, &args)

	if params.CaseID != nil {
		query += ` AND t.case_id = ` + args.add(*params.CaseID)
	}
	if params.Status != nil {
		query += ` AND t.status = ` + args.add(*params.Status)
	}
	query += ` ORDER BY t.due_date ASC, t.id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	query := `
		UPDATE tasks
		SET case_id = $2, title = $3, status = $4, due_date = $5, assigned_to = $6, category = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, t.ID, t.CaseID, t.Title, t.Status, t.DueDate, t.AssignedTo, t.Category, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}
