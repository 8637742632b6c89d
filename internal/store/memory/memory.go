// Package memory is an in-process implementation of the store contracts.
// It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// DB holds all collections behind a single lock.
type DB struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	clients   map[string]*domain.Client
	cases     map[string]*domain.Case
	tasks     map[string]*domain.Task
	documents map[string]*domain.Document
	audit     []domain.AuditEntry
	idem      map[string]idemEntry
	now       func() time.Time
}

// New creates an empty database.
func New() *DB {
	return &DB{
		users:     make(map[string]*domain.User),
		clients:   make(map[string]*domain.Client),
		cases:     make(map[string]*domain.Case),
		tasks:     make(map[string]*domain.Task),
		documents: make(map[string]*domain.Document),
		idem:      make(map[string]idemEntry),
		now:       time.Now,
	}
}

// Set returns every store backed by db.
func (db *DB) Set() store.Set {
	return store.Set{
		Users:       db.Users(),
		Clients:     db.Clients(),
		Cases:       db.Cases(),
		Tasks:       db.Tasks(),
		Documents:   db.Documents(),
		Audit:       db.Audit(),
		Idempotency: db.Idempotency(),
	}
}

func (db *DB) Users() *Users             { return &Users{db: db} }
func (db *DB) Clients() *Clients         { return &Clients{db: db} }
func (db *DB) Cases() *Cases             { return &Cases{db: db} }
func (db *DB) Tasks() *Tasks             { return &Tasks{db: db} }
func (db *DB) Documents() *Documents     { return &Documents{db: db} }
func (db *DB) Audit() *Audit             { return &Audit{db: db} }
func (db *DB) Idempotency() *Idempotency { return &Idempotency{db: db} }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Users

type Users struct{ db *DB }

var _ store.Users = (*Users)(nil)

func (s *Users) Create(_ context.Context, u *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrEmailTaken
		}
	}
	cp := *u
	s.db.users[u.ID] = &cp
	return nil
}

func (s *Users) Get(_ context.Context, id string) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *Users) GetMany(_ context.Context, ids []string) (map[string]*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *Users) List(_ context.Context, role *domain.Role) ([]domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		if role != nil && u.Role != *role {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Users) Update(_ context.Context, u *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[u.ID]; !ok {
		return store.ErrUserNotFound
	}
	for id, existing := range s.db.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return store.ErrEmailTaken
		}
	}
	cp := *u
	s.db.users[u.ID] = &cp
	return nil
}

func (s *Users) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.db.users, id)
	return nil
}

// Clients

type Clients struct{ db *DB }

var _ store.Clients = (*Clients)(nil)

func (s *Clients) Create(_ context.Context, c *domain.Client) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *c
	s.db.clients[c.ID] = &cp
	return nil
}

func (s *Clients) Get(_ context.Context, id string) (*domain.Client, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.clients[id]
	if !ok {
		return nil, store.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Clients) GetMany(_ context.Context, ids []string) (map[string]*domain.Client, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[string]*domain.Client, len(ids))
	for _, id := range ids {
		if c, ok := s.db.clients[id]; ok {
			cp := *c
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *Clients) List(_ context.Context, params domain.ListClientsParams) ([]domain.Client, error) {
	params.Normalize()
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.Client, 0, len(s.db.clients))
	for _, c := range s.db.clients {
		if params.Search != nil && !containsFold(c.Name, *params.Search) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *Clients) Update(_ context.Context, c *domain.Client) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.clients[c.ID]; !ok {
		return store.ErrClientNotFound
	}
	cp := *c
	s.db.clients[c.ID] = &cp
	return nil
}

func (s *Clients) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.clients[id]; !ok {
		return store.ErrClientNotFound
	}
	delete(s.db.clients, id)
	return nil
}

// Cases

type Cases struct{ db *DB }

var _ store.Cases = (*Cases)(nil)

func (s *Cases) Create(_ context.Context, c *domain.Case) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.cases[c.ID] = c.Clone()
	return nil
}

func (s *Cases) Get(_ context.Context, id string) (*domain.Case, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.cases[id]
	if !ok {
		return nil, store.ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (s *Cases) GetMany(_ context.Context, ids []string) (map[string]*domain.Case, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[string]*domain.Case, len(ids))
	for _, id := range ids {
		if c, ok := s.db.cases[id]; ok {
			out[id] = c.Clone()
		}
	}
	return out, nil
}

func (s *Cases) List(_ context.Context, scope access.Scope, params domain.ListCasesParams, limit int) ([]domain.Case, error) {
	params.Normalize()
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.Case, 0)
	for _, c := range s.db.cases {
		if !scope.MatchesCase(c) {
			continue
		}
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		if params.Priority != nil && c.Priority != *params.Priority {
			continue
		}
		if params.Search != nil && !containsFold(c.Title, *params.Search) {
			continue
		}
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Cases) IDs(_ context.Context, scope access.Scope) ([]string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	ids := make([]string, 0)
	for id, c := range s.db.cases {
		if scope.MatchesCase(c) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Cases) Update(_ context.Context, c *domain.Case) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.cases[c.ID]; !ok {
		return store.ErrCaseNotFound
	}
	s.db.cases[c.ID] = c.Clone()
	return nil
}

func (s *Cases) AddAssistant(_ context.Context, caseID, userID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cases[caseID]
	if !ok {
		return false, store.ErrCaseNotFound
	}
	if c.HasAssistant(userID) {
		return false, nil
	}
	c.Assistants = append(c.Assistants, userID)
	c.UpdatedAt = s.db.now()
	return true, nil
}

func (s *Cases) RemoveAssistant(_ context.Context, caseID, userID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cases[caseID]
	if !ok {
		return false, store.ErrCaseNotFound
	}
	idx := slices.Index(c.Assistants, userID)
	if idx < 0 {
		return false, nil
	}
	c.Assistants = slices.Delete(c.Assistants, idx, idx+1)
	c.UpdatedAt = s.db.now()
	return true, nil
}

func (s *Cases) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.cases[id]; !ok {
		return store.ErrCaseNotFound
	}
	delete(s.db.cases, id)
	return nil
}

// Tasks

type Tasks struct{ db *DB }

var _ store.Tasks = (*Tasks)(nil)

func (s *Tasks) Create(_ context.Context, t *domain.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *t
	s.db.tasks[t.ID] = &cp
	return nil
}

func (s *Tasks) Get(_ context.Context, id string) (*domain.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Tasks) List(_ context.Context, scope access.Scope, params domain.ListTasksParams) ([]domain.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.Task, 0)
	for _, t := range s.db.tasks {
		if params.CaseID != nil && t.CaseID != *params.CaseID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if !scope.MatchesTask(t, s.db.cases[t.CaseID]) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Tasks) Update(_ context.Context, t *domain.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tasks[t.ID]; !ok {
		return store.ErrTaskNotFound
	}
	cp := *t
	s.db.tasks[t.ID] = &cp
	return nil
}

func (s *Tasks) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.db.tasks, id)
	return nil
}

// Documents

type Documents struct{ db *DB }

var _ store.Documents = (*Documents)(nil)

func (s *Documents) Create(_ context.Context, d *domain.Document) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *d
	s.db.documents[d.ID] = &cp
	return nil
}

func (s *Documents) Get(_ context.Context, id string) (*domain.Document, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	d, ok := s.db.documents[id]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Documents) List(_ context.Context, scope access.Scope, params domain.ListDocumentsParams) ([]domain.Document, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.Document, 0)
	for _, d := range s.db.documents {
		if params.CaseID != nil && d.CaseID != *params.CaseID {
			continue
		}
		if !scope.All && !scope.MatchesCase(s.db.cases[d.CaseID]) {
			continue
		}
		out = append(out, *d)
	}
	sortDocuments(out)
	return out, nil
}

func (s *Documents) Search(_ context.Context, q string, limit int) ([]domain.Document, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]domain.Document, 0)
	for _, d := range s.db.documents {
		if containsFold(d.Filename, q) {
			out = append(out, *d)
		}
	}
	sortDocuments(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Documents) CountByCase(_ context.Context, caseIDs []string) (map[string]int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	want := make(map[string]struct{}, len(caseIDs))
	for _, id := range caseIDs {
		want[id] = struct{}{}
	}
	counts := make(map[string]int, len(caseIDs))
	for _, d := range s.db.documents {
		if _, ok := want[d.CaseID]; ok {
			counts[d.CaseID]++
		}
	}
	return counts, nil
}

func (s *Documents) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus) (*domain.Document, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.documents[id]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	d.Status = status
	d.UpdatedAt = s.db.now()
	cp := *d
	return &cp, nil
}

func (s *Documents) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.documents[id]; !ok {
		return store.ErrDocumentNotFound
	}
	delete(s.db.documents, id)
	return nil
}

func sortDocuments(docs []domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID > docs[j].ID
	})
}

// Audit

type Audit struct{ db *DB }

var _ store.AuditLog = (*Audit)(nil)

func (s *Audit) Append(_ context.Context, e *domain.AuditEntry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.audit = append(s.db.audit, *e)
	return nil
}

func (s *Audit) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var allowed map[string]struct{}
	if filter.CaseIDs != nil {
		allowed = make(map[string]struct{}, len(filter.CaseIDs))
		for _, id := range filter.CaseIDs {
			allowed[id] = struct{}{}
		}
	}

	out := make([]domain.AuditEntry, 0)
	for i := range s.db.audit {
		e := s.db.audit[i]
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		if allowed != nil {
			caseID, ok := e.CaseRef()
			if !ok {
				continue
			}
			if _, ok := allowed[caseID]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// Idempotency

type idemEntry struct {
	resp      store.CachedResponse
	createdAt time.Time
	expiresAt time.Time
}

type Idempotency struct{ db *DB }

var _ store.Idempotency = (*Idempotency)(nil)

const idempotencyTTL = 24 * time.Hour

func idemKey(userID, keyHash string) string { return userID + "\x00" + keyHash }

func (s *Idempotency) CheckKey(_ context.Context, userID, keyHash string) (*store.CachedResponse, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	e, ok := s.db.idem[idemKey(userID, keyHash)]
	if !ok || !e.expiresAt.After(s.db.now()) {
		return nil, nil
	}
	resp := e.resp
	return &resp, nil
}

func (s *Idempotency) StoreResult(_ context.Context, req store.IdempotentRequest, resp store.CachedResponse) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	k := idemKey(req.UserID, req.KeyHash)
	if _, exists := s.db.idem[k]; exists {
		return nil
	}
	now := s.db.now()
	s.db.idem[k] = idemEntry{resp: resp, createdAt: now, expiresAt: now.Add(idempotencyTTL)}
	return nil
}

func (s *Idempotency) CleanupExpired(_ context.Context) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := s.db.now()
	var n int64
	for k, e := range s.db.idem {
		if !e.expiresAt.After(now) {
			delete(s.db.idem, k)
			n++
		}
	}
	return n, nil
}

// SetClock overrides the time source used for timestamps the store assigns.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}
