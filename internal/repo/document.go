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

const documentColumns = `d.id, d.case_id, d.filename, d.file_url, d.content_type, d.size, d.status, d.uploaded_by, d.uploaded_at, d.updated_at`

type DocumentRepository struct {
	pool *pgxpool.Pool
}

var _ store.Documents = (*DocumentRepository)(nil)

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.ID, &d.CaseID, &d.Filename, &d.FileURL, &d.ContentType, &d.Size, &d.Status, &d.UploadedBy, &d.UploadedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDocuments(rows pgx.Rows) ([]domain.Document, error) {
	defer rows.Close()
	docs := make([]domain.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	query := `
		INSERT INTO documents (id, case_id, filename, file_url, content_type, size, status, uploaded_by, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		d.ID, d.CaseID, d.Filename, d.FileURL, d.ContentType, d.Size, d.Status, d.UploadedBy, d.UploadedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return d, nil
}

// List joins the parent case so the scope applies; documents of deleted
// cases only surface for a scope with All set.
func (r *DocumentRepository) List(ctx context.Context, scope access.Scope, params domain.ListDocumentsParams) ([]domain.Document, error) {
	var args queryArgs
	query := `SELECT ` + documentColumns + `
		FROM documents d
		LEFT JOIN cases c ON c.id = d.case_id
		WHERE ` + caseScopeSQL(scope, &args)

	if params.CaseID != nil {
		query += ` AND d.case_id = ` + args.add(*params.CaseID)
	}
	query += ` ORDER BY d.uploaded_at DESC, d.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return collectDocuments(rows)
}

func (r *DocumentRepository) Search(ctx context.Context, q string, limit int) ([]domain.Document, error) {
	var args queryArgs
	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.filename ILIKE ` + args.add(likePattern(q)) + `
		ORDER BY d.uploaded_at DESC, d.id DESC`
	if limit > 0 {
		query += ` LIMIT ` + args.add(limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return collectDocuments(rows)
}

func (r *DocumentRepository) CountByCase(ctx context.Context, caseIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(caseIDs))
	if len(caseIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT case_id, COUNT(*)
		FROM documents
		WHERE case_id = ANY($1)
		GROUP BY case_id
	`, caseIDs)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan document count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document counts: %w", err)
	}
	return counts, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) (*domain.Document, error) {
	query := `
		UPDATE documents d
		SET status = $2, updated_at = now()
		WHERE d.id = $1
		RETURNING ` + documentColumns

	d, err := scanDocument(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("update document status: %w", err)
	}
	return d, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDocumentNotFound
	}
	return nil
}
