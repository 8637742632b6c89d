package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func seedCases(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	cases := []*domain.Case{
		{ID: "c1", Title: "Smith v. Jones", AssignedAttorney: "att-a", Assistants: []string{"asst-x"}, Status: domain.CaseStatusOpen, Priority: domain.PriorityHigh, CreatedAt: t0},
		{ID: "c2", Title: "Estate of Brown", AssignedAttorney: "att-a", Status: domain.CaseStatusClosed, Priority: domain.PriorityLow, CreatedAt: t0.Add(time.Hour)},
		{ID: "c3", Title: "Jones Trust", AssignedAttorney: "att-b", Status: domain.CaseStatusPending, Priority: domain.PriorityHigh, CreatedAt: t0.Add(2 * time.Hour)},
	}
	for _, c := range cases {
		require.NoError(t, db.Cases().Create(ctx, c))
	}
}

func TestCases_ListScopedNewestFirst(t *testing.T) {
	db := New()
	seedCases(t, db)
	ctx := context.Background()

	all, err := db.Cases().List(ctx, access.Scope{All: true}, domain.ListCasesParams{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c3", all[0].ID)
	assert.Equal(t, "c1", all[2].ID)

	mine, err := db.Cases().List(ctx, access.Scope{AttorneyID: "att-a"}, domain.ListCasesParams{}, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := db.Cases().List(ctx, access.Scope{}, domain.ListCasesParams{}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	high := domain.PriorityHigh
	search, err := db.Cases().List(ctx, access.Scope{All: true}, domain.ListCasesParams{Search: strp("JONES"), Priority: &high}, 1)
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "c3", search[0].ID)
}

func TestCases_AssistantMembershipIsASet(t *testing.T) {
	db := New()
	seedCases(t, db)
	ctx := context.Background()

	added, err := db.Cases().AddAssistant(ctx, "c2", "asst-y")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = db.Cases().AddAssistant(ctx, "c2", "asst-y")
	require.NoError(t, err)
	assert.False(t, added)

	c, err := db.Cases().Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, []string{"asst-y"}, c.Assistants)

	removed, err := db.Cases().RemoveAssistant(ctx, "c2", "asst-x")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = db.Cases().AddAssistant(ctx, "missing", "asst-y")
	assert.ErrorIs(t, err, store.ErrCaseNotFound)
}

func TestCases_GetReturnsCopy(t *testing.T) {
	db := New()
	seedCases(t, db)
	ctx := context.Background()

	c, err := db.Cases().Get(ctx, "c1")
	require.NoError(t, err)
	c.Assistants[0] = "tampered"

	again, err := db.Cases().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"asst-x"}, again.Assistants)
}

func TestTasks_ScopeUsesParentCaseAndAssignee(t *testing.T) {
	db := New()
	seedCases(t, db)
	ctx := context.Background()

	require.NoError(t, db.Tasks().Create(ctx, &domain.Task{ID: "t1", CaseID: "c1", DueDate: t0.Add(48 * time.Hour), AssignedTo: "att-a"}))
	require.NoError(t, db.Tasks().Create(ctx, &domain.Task{ID: "t2", CaseID: "c3", DueDate: t0, AssignedTo: "asst-x"}))

	tasks, err := db.Tasks().List(ctx, access.Scope{AssistantID: "asst-x", AssigneeID: "asst-x"}, domain.ListTasksParams{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID, "sorted by due date")

	tasks, err = db.Tasks().List(ctx, access.Scope{AttorneyID: "att-b"}, domain.ListTasksParams{CaseID: strp("c1")})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCases_DeleteLeavesChildren(t *testing.T) {
	db := New()
	seedCases(t, db)
	ctx := context.Background()

	require.NoError(t, db.Tasks().Create(ctx, &domain.Task{ID: "t1", CaseID: "c1", AssignedTo: "att-a"}))
	require.NoError(t, db.Documents().Create(ctx, &domain.Document{ID: "d1", CaseID: "c1", Filename: "brief.pdf"}))
	require.NoError(t, db.Cases().Delete(ctx, "c1"))

	_, err := db.Tasks().Get(ctx, "t1")
	assert.NoError(t, err)
	_, err = db.Documents().Get(ctx, "d1")
	assert.NoError(t, err)
}

func TestDocuments_SearchAndCount(t *testing.T) {
	db := New()
	seedCases(t, db)
	ctx := context.Background()

	require.NoError(t, db.Documents().Create(ctx, &domain.Document{ID: "d1", CaseID: "c1", Filename: "Retainer.pdf", UploadedAt: t0}))
	require.NoError(t, db.Documents().Create(ctx, &domain.Document{ID: "d2", CaseID: "c1", Filename: "evidence.png", UploadedAt: t0.Add(time.Minute)}))
	require.NoError(t, db.Documents().Create(ctx, &domain.Document{ID: "d3", CaseID: "c3", Filename: "retainer-v2.pdf", UploadedAt: t0.Add(time.Hour)}))

	hits, err := db.Documents().Search(ctx, "retainer", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "d3", hits[0].ID)

	counts, err := db.Documents().CountByCase(ctx, []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"c1": 2}, counts)
}

func TestAudit_FilterByCaseRefAndRange(t *testing.T) {
	db := New()
	ctx := context.Background()
	entries := []domain.AuditEntry{
		{ID: "a1", Entity: domain.EntityCase, EntityID: "c1", Timestamp: t0},
		{ID: "a2", Entity: domain.EntityTask, EntityID: "t1", Metadata: map[string]interface{}{"caseId": "c1"}, Timestamp: t0.Add(time.Hour)},
		{ID: "a3", Entity: domain.EntityClient, EntityID: "cl1", Timestamp: t0.Add(2 * time.Hour)},
		{ID: "a4", Entity: domain.EntityDocument, EntityID: "d1", Metadata: map[string]interface{}{"caseId": "c9"}, Timestamp: t0.Add(3 * time.Hour)},
	}
	for i := range entries {
		require.NoError(t, db.Audit().Append(ctx, &entries[i]))
	}

	got, err := db.Audit().List(ctx, domain.AuditFilter{CaseIDs: []string{"c1"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID)
	assert.Equal(t, "a1", got[1].ID)

	got, err = db.Audit().List(ctx, domain.AuditFilter{CaseIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, got)

	from, to := t0.Add(30*time.Minute), t0.Add(2*time.Hour)
	got, err = db.Audit().List(ctx, domain.AuditFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a3", got[0].ID)
}

func TestUsers_EmailUniqueCaseInsensitive(t *testing.T) {
	db := New()
	ctx := context.Background()

	require.NoError(t, db.Users().Create(ctx, &domain.User{ID: "u1", Email: "ann@firm.test"}))
	err := db.Users().Create(ctx, &domain.User{ID: "u2", Email: "ANN@firm.test"})
	assert.ErrorIs(t, err, store.ErrEmailTaken)

	u, err := db.Users().GetByEmail(ctx, "Ann@Firm.test")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestIdempotency_ExpiresAfterTTL(t *testing.T) {
	db := New()
	now := t0
	db.SetClock(func() time.Time { return now })
	ctx := context.Background()
	idem := db.Idempotency()

	req := store.IdempotentRequest{UserID: "u1", KeyHash: store.HashKey("k")}
	require.NoError(t, idem.StoreResult(ctx, req, store.CachedResponse{Status: 201, Body: []byte(`{}`)}))

	cached, err := idem.CheckKey(ctx, "u1", req.KeyHash)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 201, cached.Status)

	other, err := idem.CheckKey(ctx, "u2", req.KeyHash)
	require.NoError(t, err)
	assert.Nil(t, other)

	now = now.Add(25 * time.Hour)
	n, err := idem.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
