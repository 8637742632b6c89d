package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// IdempotencyRepo handles idempotency key storage and retrieval, scoped per user.
type IdempotencyRepo struct {
	pool *pgxpool.Pool
}

var _ store.Idempotency = (*IdempotencyRepo)(nil)

func NewIdempotencyRepo(pool *pgxpool.Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// CheckKey checks if an idempotency key exists and returns cached response
func (r *IdempotencyRepo) CheckKey(ctx context.Context, userID, keyHash string) (*store.CachedResponse, error) {
	query := `
		SELECT response_status, response_body, response_headers
		FROM idempotency_keys
		WHERE user_id = $1 AND key_hash = $2 AND expires_at > NOW()
	`

	var status int
	var body []byte
	var headersJSON []byte

	err := r.pool.QueryRow(ctx, query, userID, keyHash).Scan(&status, &body, &headersJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	var headers map[string]string
	if headersJSON != nil {
		if err := json.Unmarshal(headersJSON, &headers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal headers: %w", err)
		}
	}

	return &store.CachedResponse{
		Status:  status,
		Body:    json.RawMessage(body),
		Headers: headers,
	}, nil
}

// StoreResult keeps the first response for a key; later writes are ignored.
func (r *IdempotencyRepo) StoreResult(ctx context.Context, req store.IdempotentRequest, resp store.CachedResponse) error {
	headersJSON, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	var body interface{}
	if len(resp.Body) > 0 && json.Valid(resp.Body) {
		body = string(resp.Body)
	}

	query := `
		INSERT INTO idempotency_keys (
			user_id, key_hash, original_key, method, path,
			request_payload, response_status, response_body, response_headers, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, NOW() + INTERVAL '24 hours')
		ON CONFLICT (user_id, key_hash) DO NOTHING
	`

	_, err = r.pool.Exec(ctx, query,
		req.UserID, req.KeyHash, req.OriginalKey, req.Method, req.Path,
		req.Payload, resp.Status, body, string(headersJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store idempotency result: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency keys
func (r *IdempotencyRepo) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired keys: %w", err)
	}
	return result.RowsAffected(), nil
}
