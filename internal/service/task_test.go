package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

func taskIDs(views []domain.TaskView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestListTasks_Visibility(t *testing.T) {
	f := newFixture(t)
	svc := f.tasks()
	ctx := context.Background()

	tests := []struct {
		name string
		p    domain.Principal
		want []string
	}{
		{"admin", admin, []string{"t1", "t2", "t3", "t4"}},
		// ann is assigned t4 but c2 is not her case
		{"attorney sees own cases only", ann, []string{"t1"}},
		{"other attorney", bea, []string{"t2", "t3", "t4"}},
		// sam is listed on c1 and assigned t2 on c2
		{"assistant sees listed cases and own assignments", sam, []string{"t1", "t2"}},
		{"unlisted assistant", tia, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.ListTasks(ctx, tt.p, domain.ListTasksParams{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, taskIDs(views))
		})
	}
}

func TestListTasks_PopulatesCaseAndAssignee(t *testing.T) {
	f := newFixture(t)
	caseID := "c1"
	views, err := f.tasks().ListTasks(context.Background(), admin, domain.ListTasksParams{CaseID: &caseID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Case)
	assert.Equal(t, "Smith v. Jones", views[0].Case.Title)
	assert.Equal(t, []string{sam.ID}, views[0].Case.Assistants)
	require.NotNil(t, views[0].Assignee)
	assert.Equal(t, "Ann", views[0].Assignee.Name)
}

func TestGetTask_AssistantAsymmetry(t *testing.T) {
	f := newFixture(t)
	svc := f.tasks()
	ctx := context.Background()

	v, err := svc.GetTask(ctx, sam, "t2")
	require.NoError(t, err)
	assert.Equal(t, "c2", v.CaseID)

	_, err = svc.GetTask(ctx, sam, "t3")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetTask(ctx, ann, "t4")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetTask(ctx, ann, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetTask_OrphanVisibleToAdminAndAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.set.Cases.Delete(ctx, "c2"))
	svc := f.tasks()

	v, err := svc.GetTask(ctx, admin, "t3")
	require.NoError(t, err)
	assert.Nil(t, v.Case)

	_, err = svc.GetTask(ctx, sam, "t2")
	assert.NoError(t, err)

	_, err = svc.GetTask(ctx, bea, "t3")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	svc := f.tasks()
	ctx := context.Background()

	req := &domain.CreateTaskRequest{CaseID: "c1", Title: "Depose witness", DueDate: domain.NewDate(now.Add(time.Hour)), AssignedTo: sam.ID}
	task, err := svc.CreateTask(ctx, sam, req)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOpen, task.Status)
	assert.Equal(t, "c1", task.CaseID)

	_, err = svc.CreateTask(ctx, tia, req)
	assert.ErrorIs(t, err, ErrForbidden)

	req.CaseID = "missing"
	_, err = svc.CreateTask(ctx, admin, req)
	assert.ErrorIs(t, err, ErrCaseNotFound)

	ghost := &domain.CreateTaskRequest{CaseID: "c1", Title: "Ghost work", DueDate: domain.NewDate(now.Add(time.Hour)), AssignedTo: "ghost"}
	_, err = svc.CreateTask(ctx, admin, ghost)
	assert.ErrorIs(t, err, ErrInvalidAssignee)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntityTask, entries[0].Entity)
	assert.Equal(t, "c1", entries[0].Metadata["caseId"])
}

func TestUpdateTask_OverdueTransition(t *testing.T) {
	f := newFixture(t)
	svc := f.tasks()
	ctx := context.Background()

	past := domain.NewDate(now.Add(-24 * time.Hour))
	task, err := svc.UpdateTask(ctx, ann, "t1", &domain.UpdateTaskRequest{DueDate: past})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOverdue, task.Status)

	// an explicit status is still overridden while the due date is past
	inProgress := domain.TaskStatusInProgress
	task, err = svc.UpdateTask(ctx, ann, "t1", &domain.UpdateTaskRequest{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOverdue, task.Status)

	completed := domain.TaskStatusCompleted
	task, err = svc.UpdateTask(ctx, ann, "t1", &domain.UpdateTaskRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)

	open := domain.TaskStatusOpen
	task, err = svc.UpdateTask(ctx, ann, "t1", &domain.UpdateTaskRequest{Status: &open, DueDate: domain.NewDate(now.Add(time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOpen, task.Status)

	stored, err := f.set.Tasks.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOpen, stored.Status)
}

func TestUpdateTask_AssigneeOnForeignCaseCannotWrite(t *testing.T) {
	f := newFixture(t)
	title := "Renamed"
	_, err := f.tasks().UpdateTask(context.Background(), sam, "t2", &domain.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateTask_Reassign(t *testing.T) {
	f := newFixture(t)
	svc := f.tasks()
	ctx := context.Background()

	_, err := svc.UpdateTask(ctx, ann, "t1", &domain.UpdateTaskRequest{AssignedTo: strp("ghost")})
	assert.ErrorIs(t, err, ErrInvalidAssignee)

	stored, err := f.set.Tasks.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, stored.AssignedTo)

	task, err := svc.UpdateTask(ctx, ann, "t1", &domain.UpdateTaskRequest{AssignedTo: strp(tia.ID)})
	require.NoError(t, err)
	assert.Equal(t, tia.ID, task.AssignedTo)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	svc := f.tasks()
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteTask(ctx, ann, "t3"), ErrForbidden)
	require.NoError(t, svc.DeleteTask(ctx, bea, "t3"))

	_, err := f.set.Tasks.Get(ctx, "t3")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, 1, countAction(f.entries(t), domain.ActionDelete))
}

func TestDeleteTask_OrphanCannotBeModified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.set.Cases.Delete(ctx, "c2"))

	err := f.tasks().DeleteTask(ctx, admin, "t3")
	assert.ErrorIs(t, err, ErrCaseNotFound)
}
