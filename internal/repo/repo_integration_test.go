package repo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/database"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/repo"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// integrationPool connects to DATABASE_URL and applies migrations.
//
// Run with: DATABASE_URL=postgres://... go test -v ./internal/repo -run Integration
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	require.NoError(t, database.RunMigrations(databaseURL))

	pool, err := database.NewPool(context.Background(), databaseURL, database.PoolOptions{})
	require.NoError(t, err, "failed to connect to database")
	t.Cleanup(pool.Close)
	return pool
}

func TestCaseRepository_Integration(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	set := repo.NewSet(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	attorney := "att-" + ids.New()
	assistant := "asst-" + ids.New()
	c := &domain.Case{
		ID:               ids.New(),
		Title:            "Integration v. Test",
		ClientID:         "client-" + ids.New(),
		AssignedAttorney: attorney,
		Assistants:       []string{},
		Status:           domain.CaseStatusOpen,
		Priority:         domain.PriorityHigh,
		StartDate:        now,
		Deadline:         now.Add(48 * time.Hour),
		Tags:             []string{"litigation"},
		CreatedBy:        attorney,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	cleanup := func() {
		_, _ = pool.Exec(ctx, `DELETE FROM cases WHERE id = $1`, c.ID)
		_, _ = pool.Exec(ctx, `DELETE FROM tasks WHERE case_id = $1`, c.ID)
	}
	cleanup()
	defer cleanup()

	require.NoError(t, set.Cases.Create(ctx, c))

	got, err := set.Cases.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)
	assert.Equal(t, []string{"litigation"}, got.Tags)

	t.Run("assistant membership is a set", func(t *testing.T) {
		added, err := set.Cases.AddAssistant(ctx, c.ID, assistant)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = set.Cases.AddAssistant(ctx, c.ID, assistant)
		require.NoError(t, err)
		assert.False(t, added)

		_, err = set.Cases.AddAssistant(ctx, "missing-"+ids.New(), assistant)
		assert.ErrorIs(t, err, store.ErrCaseNotFound)
	})

	t.Run("scope filters by attorney and assistant", func(t *testing.T) {
		list, err := set.Cases.List(ctx, access.Scope{AttorneyID: attorney}, domain.ListCasesParams{}, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)

		list, err = set.Cases.List(ctx, access.Scope{AssistantID: assistant}, domain.ListCasesParams{}, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)

		list, err = set.Cases.List(ctx, access.Scope{}, domain.ListCasesParams{}, 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("assignee sees task on foreign case", func(t *testing.T) {
		task := &domain.Task{
			ID: ids.New(), CaseID: c.ID, Title: "Draft", Status: domain.TaskStatusOpen,
			DueDate: now, AssignedTo: "other-" + ids.New(), CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, set.Tasks.Create(ctx, task))

		tasks, err := set.Tasks.List(ctx, access.Scope{AssistantID: "nobody", AssigneeID: task.AssignedTo}, domain.ListTasksParams{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.ID, tasks[0].ID)
	})

	t.Run("delete does not cascade", func(t *testing.T) {
		require.NoError(t, set.Cases.Delete(ctx, c.ID))
		assert.ErrorIs(t, set.Cases.Delete(ctx, c.ID), store.ErrCaseNotFound)

		tasks, err := set.Tasks.List(ctx, access.Scope{All: true}, domain.ListTasksParams{CaseID: &c.ID})
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})
}

func TestAuditRepository_Integration(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	audit := repo.NewAuditRepository(pool)

	caseID := "case-" + ids.New()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []*domain.AuditEntry{
		{ID: ids.NewAt(ts), Action: domain.ActionCreate, Entity: domain.EntityCase, EntityID: caseID, Timestamp: ts},
		{ID: ids.NewAt(ts.Add(time.Hour)), Action: domain.ActionCreate, Entity: domain.EntityTask, EntityID: "t-" + ids.New(),
			Metadata: map[string]interface{}{"caseId": caseID}, Timestamp: ts.Add(time.Hour)},
		{ID: ids.NewAt(ts.Add(2 * time.Hour)), Action: domain.ActionCreate, Entity: domain.EntityClient, EntityID: "cl-" + ids.New(),
			Metadata: map[string]interface{}{"caseId": caseID}, Timestamp: ts.Add(2 * time.Hour)},
	}
	defer func() {
		for _, e := range entries {
			_, _ = pool.Exec(ctx, `DELETE FROM audit_log WHERE id = $1`, e.ID)
		}
	}()
	for _, e := range entries {
		require.NoError(t, audit.Append(ctx, e))
	}

	got, err := audit.List(ctx, domain.AuditFilter{CaseIDs: []string{caseID}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.EntityTask, got[0].Entity)
	assert.Equal(t, caseID, got[0].Metadata["caseId"])

	got, err = audit.List(ctx, domain.AuditFilter{CaseIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIdempotencyRepo_Integration(t *testing.T) {
	pool := integrationPool(t)
	ctx := context.Background()
	idem := repo.NewIdempotencyRepo(pool)

	userID := "user-" + ids.New()
	keyHash := store.HashKey("key-1")
	defer func() {
		_, _ = pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE user_id = $1`, userID)
	}()

	cached, err := idem.CheckKey(ctx, userID, keyHash)
	require.NoError(t, err)
	assert.Nil(t, cached)

	req := store.IdempotentRequest{UserID: userID, KeyHash: keyHash, OriginalKey: "key-1", Method: "POST", Path: "/api/cases"}
	require.NoError(t, idem.StoreResult(ctx, req, store.CachedResponse{
		Status: 201, Body: []byte(`{"id":"c1"}`), Headers: map[string]string{"Content-Type": "application/json"},
	}))
	require.NoError(t, idem.StoreResult(ctx, req, store.CachedResponse{Status: 500}))

	cached, err = idem.CheckKey(ctx, userID, keyHash)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 201, cached.Status)
	assert.JSONEq(t, `{"id":"c1"}`, string(cached.Body))

	other, err := idem.CheckKey(ctx, "different-user", keyHash)
	require.NoError(t, err)
	assert.Nil(t, other)
}
