package handler

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/dashboard"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

func TestTasks_ParentCasePermission(t *testing.T) {
	api := newTestAPI(t, 0)
	due := time.Now().Add(5 * 24 * time.Hour).UTC().Format(time.RFC3339)

	rec := api.do(t, sam, http.MethodPost, "/api/tasks", map[string]string{
		"caseId": "c1", "title": "Collect exhibits", "dueDate": due, "assignedTo": sam.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task domain.Task
	decodeJSON(t, rec, &task)
	assert.Equal(t, domain.TaskStatusOpen, task.Status)

	rec = api.do(t, bea, http.MethodPost, "/api/tasks", map[string]string{
		"caseId": "c1", "title": "Sneak in", "dueDate": due, "assignedTo": bea.ID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, ann, http.MethodPost, "/api/tasks", map[string]string{
		"caseId": "c1", "title": "Nobody", "dueDate": due, "assignedTo": "ghost",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid assignedTo", errorOf(t, rec).Message)

	rec = api.do(t, sam, http.MethodPut, "/api/tasks/"+task.ID, map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeJSON(t, rec, &task)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)

	rec = api.do(t, ann, http.MethodGet, "/api/tasks?caseId=c1&status=Completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []domain.TaskView
	decodeJSON(t, rec, &views)
	require.Len(t, views, 1)
	assert.Equal(t, task.ID, views[0].ID)
	require.NotNil(t, views[0].Case)
	assert.Equal(t, "Smith v. Jones", views[0].Case.Title)

	rec = api.do(t, ann, http.MethodGet, "/api/tasks?status=Done", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, tia, http.MethodGet, "/api/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, ann, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, ann, http.MethodGet, "/api/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", errorOf(t, rec).Message)
}

func TestClients_CRUD(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.do(t, sam, http.MethodPost, "/api/clients", map[string]string{"name": "Zed Ltd"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, ann, http.MethodPost, "/api/clients", map[string]string{"name": "Zed Ltd", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec).Fields, "email")

	rec = api.do(t, ann, http.MethodPost, "/api/clients", map[string]string{"name": "Zed Ltd"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c domain.Client
	decodeJSON(t, rec, &c)

	rec = api.do(t, sam, http.MethodGet, "/api/clients?search=zed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var clients []domain.Client
	decodeJSON(t, rec, &clients)
	require.Len(t, clients, 1)
	assert.Equal(t, c.ID, clients[0].ID)

	rec = api.do(t, ann, http.MethodGet, "/api/clients?limit=1000", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, ann, http.MethodPut, "/api/clients/"+c.ID, map[string]string{"name": "Zed Limited"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &c)
	assert.Equal(t, "Zed Limited", c.Name)

	rec = api.do(t, ann, http.MethodDelete, "/api/clients/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, ann, http.MethodGet, "/api/clients/"+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard_ScopedOverview(t *testing.T) {
	api := newTestAPI(t, 0)

	overview := func(u *domain.User) dashboard.Overview {
		rec := api.do(t, u, http.MethodGet, "/api/dashboard/overview", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var o dashboard.Overview
		decodeJSON(t, rec, &o)
		return o
	}

	assert.Equal(t, 2, overview(admin).TotalActiveCases)
	o := overview(ann)
	assert.Equal(t, 1, o.TotalActiveCases)
	assert.Equal(t, 1, o.CasesClosingSoon)
	assert.Equal(t, 0, overview(tia).TotalActiveCases)

	rec := api.do(t, ann, http.MethodGet, "/api/dashboard/attention", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuditExport(t *testing.T) {
	api := newTestAPI(t, 0)
	rec := api.do(t, ann, http.MethodPut, "/api/cases/c1", map[string]string{"priority": "Low"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, bea, http.MethodPut, "/api/cases/c2", map[string]string{"priority": "High"})
	require.Equal(t, http.StatusOK, rec.Code)
	api.flush(t)

	rec = api.do(t, sam, http.MethodGet, "/api/audit/export", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, ann, http.MethodGet, "/api/audit/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, ann, http.MethodGet, "/api/audit/export?from=15-06-2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, ann, http.MethodGet, "/api/audit/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus ann's own case update")
	assert.Contains(t, rows[1], "c1")

	rec = api.do(t, admin, http.MethodGet, "/api/audit/export?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		TotalRecords int `json:"totalRecords"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, 2, body.TotalRecords)
}

func TestSearch(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.do(t, sam, http.MethodGet, "/api/search?q=%20%20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(t, bea, http.MethodGet, "/api/search?q=smith", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(t, ann, http.MethodGet, "/api/search?q=smith", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []domain.SearchResult
	decodeJSON(t, rec, &results)
	require.Len(t, results, 1)
	assert.Equal(t, domain.SearchTypeCase, results[0].Type)
	assert.Equal(t, "c1", results[0].ID)
}
