// Package store declares the persistence contracts shared by the Postgres and
// in-memory backends.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrClientNotFound   = errors.New("client not found")
	ErrCaseNotFound     = errors.New("case not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmailTaken       = errors.New("email already registered")
)

type Users interface {
	// Create fails with ErrEmailTaken when the email is in use.
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetMany returns the users that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]*domain.User, error)
	// List returns users ordered by name; role filters when non-nil.
	List(ctx context.Context, role *domain.Role) ([]domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

type Clients interface {
	Create(ctx context.Context, c *domain.Client) error
	Get(ctx context.Context, id string) (*domain.Client, error)
	GetMany(ctx context.Context, ids []string) (map[string]*domain.Client, error)
	// List returns clients newest first; Search is a case-insensitive name substring.
	List(ctx context.Context, params domain.ListClientsParams) ([]domain.Client, error)
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, id string) error
}

type Cases interface {
	Create(ctx context.Context, c *domain.Case) error
	Get(ctx context.Context, id string) (*domain.Case, error)
	GetMany(ctx context.Context, ids []string) (map[string]*domain.Case, error)
	// List returns the cases matching scope and params, newest first.
	// limit <= 0 means unlimited.
	List(ctx context.Context, scope access.Scope, params domain.ListCasesParams, limit int) ([]domain.Case, error)
	// IDs returns the ids of every case in scope.
	IDs(ctx context.Context, scope access.Scope) ([]string, error)
	Update(ctx context.Context, c *domain.Case) error
	// AddAssistant adds userID to the set; added is false when already present.
	AddAssistant(ctx context.Context, caseID, userID string) (added bool, err error)
	// RemoveAssistant removes userID; removed is false when it was not present.
	RemoveAssistant(ctx context.Context, caseID, userID string) (removed bool, err error)
	// Delete removes only the case row. Tasks and documents are kept.
	Delete(ctx context.Context, id string) error
}

type Tasks interface {
	Create(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	// List returns the tasks matching scope and params ordered by due date.
	List(ctx context.Context, scope access.Scope, params domain.ListTasksParams) ([]domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
}

type Documents interface {
	Create(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	// List returns the documents whose parent case is in scope, newest first.
	List(ctx context.Context, scope access.Scope, params domain.ListDocumentsParams) ([]domain.Document, error)
	// Search matches filenames case-insensitively without any scope.
	Search(ctx context.Context, q string, limit int) ([]domain.Document, error)
	// CountByCase returns how many documents each of caseIDs has.
	CountByCase(ctx context.Context, caseIDs []string) (map[string]int, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
}

type AuditLog interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
	// List returns matching entries, newest first.
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error)
}

// CachedResponse represents a cached response from an idempotent request
type CachedResponse struct {
	Status  int
	Body    json.RawMessage
	Headers map[string]string
}

// IdempotentRequest is what gets persisted for a replayable request.
type IdempotentRequest struct {
	UserID      string
	KeyHash     string
	OriginalKey string
	Method      string
	Path        string
	Payload     []byte
}

type Idempotency interface {
	// CheckKey returns nil, nil when no live entry exists.
	CheckKey(ctx context.Context, userID, keyHash string) (*CachedResponse, error)
	StoreResult(ctx context.Context, req IdempotentRequest, resp CachedResponse) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// HashKey generates SHA256 hash of idempotency key
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// Set groups every store a running service needs.
type Set struct {
	Users       Users
	Clients     Clients
	Cases       Cases
	Tasks       Tasks
	Documents   Documents
	Audit       AuditLog
	Idempotency Idempotency
}
