// Package repo implements the store contracts on PostgreSQL through pgx.
package repo

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// NewSet wires every repository to pool.
func NewSet(pool *pgxpool.Pool) store.Set {
	return store.Set{
		Users:       NewUserRepository(pool),
		Clients:     NewClientRepository(pool),
		Cases:       NewCaseRepository(pool),
		Tasks:       NewTaskRepository(pool),
		Documents:   NewDocumentRepository(pool),
		Audit:       NewAuditRepository(pool),
		Idempotency: NewIdempotencyRepo(pool),
	}
}
