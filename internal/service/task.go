package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

type TaskService struct {
	tasks store.Tasks
	cases store.Cases
	users store.Users
	audit Recorder
	log   *logger.Logger
	clock clock
}

func NewTaskService(s store.Set, rec Recorder, log *logger.Logger) *TaskService {
	return &TaskService{
		tasks: s.Tasks,
		cases: s.Cases,
		users: s.Users,
		audit: rec,
		log:   log,
	}
}

// ListTasks returns the tasks visible to p ordered by due date. Assistants
// also see tasks assigned to them on cases they are not listed on.
func (s *TaskService) ListTasks(ctx context.Context, p domain.Principal, params domain.ListTasksParams) ([]domain.TaskView, error) {
	tasks, err := s.tasks.List(ctx, access.TaskScope(p), params)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	views := make([]domain.TaskView, 0, len(tasks))
	if len(tasks) == 0 {
		return views, nil
	}

	caseIDs := make([]string, 0, len(tasks))
	userIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		caseIDs = append(caseIDs, t.CaseID)
		userIDs = append(userIDs, t.AssignedTo)
	}
	cases, err := s.cases.GetMany(ctx, caseIDs)
	if err != nil {
		return nil, fmt.Errorf("load task cases: %w", err)
	}
	users, err := s.users.GetMany(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load assignees: %w", err)
	}

	for i := range tasks {
		views = append(views, taskView(&tasks[i], cases[tasks[i].CaseID], users[tasks[i].AssignedTo]))
	}
	return views, nil
}

func (s *TaskService) GetTask(ctx context.Context, p domain.Principal, id string) (*domain.TaskView, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	parent, err := s.parentCase(ctx, t.CaseID)
	if err != nil {
		return nil, err
	}
	if !access.CanReadTask(p, t, parent) {
		logDenied(ctx, s.log, "task", "get", p, id)
		return nil, ErrForbidden
	}

	var assignee *domain.User
	if u, err := s.users.Get(ctx, t.AssignedTo); err == nil {
		assignee = u
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("get assignee: %w", err)
	}

	v := taskView(t, parent, assignee)
	return &v, nil
}

// CreateTask requires write permission on the parent case.
func (s *TaskService) CreateTask(ctx context.Context, p domain.Principal, req *domain.CreateTaskRequest) (*domain.Task, error) {
	parent, err := s.cases.Get(ctx, req.CaseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := access.CanWrite(p, parent); err != nil {
		logDenied(ctx, s.log, "task", "create", p, parent.ID)
		return nil, err
	}
	if err := s.ensureAssignee(ctx, req.AssignedTo); err != nil {
		return nil, err
	}

	now := s.clock.now()
	t := &domain.Task{
		ID:         ids.NewAt(now),
		CaseID:     parent.ID,
		Title:      req.Title,
		Status:     domain.TaskStatusOpen,
		DueDate:    req.DueDate.Time,
		AssignedTo: req.AssignedTo,
		Category:   req.Category,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Status != nil {
		t.Status = *req.Status
	}

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.record(ctx, p, domain.ActionCreate, t)
	return t, nil
}

// UpdateTask applies the non-nil fields of req, then moves a past-due task
// that is not Completed to Overdue.
func (s *TaskService) UpdateTask(ctx context.Context, p domain.Principal, id string, req *domain.UpdateTaskRequest) (*domain.Task, error) {
	t, err := s.writableTask(ctx, p, id, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate.Time
	}
	if req.AssignedTo != nil && *req.AssignedTo != t.AssignedTo {
		if err := s.ensureAssignee(ctx, *req.AssignedTo); err != nil {
			return nil, err
		}
		t.AssignedTo = *req.AssignedTo
	}
	if req.Category != nil {
		t.Category = *req.Category
	}

	now := s.clock.now()
	t.ApplyOverdue(now)
	t.UpdatedAt = now

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.record(ctx, p, domain.ActionUpdate, t)
	return t, nil
}

// ensureAssignee rejects an assignedTo that does not name an existing user.
func (s *TaskService) ensureAssignee(ctx context.Context, id string) error {
	if _, err := s.users.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrInvalidAssignee
		}
		return fmt.Errorf("get assignee: %w", err)
	}
	return nil
}

func (s *TaskService) DeleteTask(ctx context.Context, p domain.Principal, id string) error {
	t, err := s.writableTask(ctx, p, id, "delete")
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.record(ctx, p, domain.ActionDelete, t)
	return nil
}

// writableTask loads the task and checks write permission on its case. A
// task whose case is gone cannot be modified.
func (s *TaskService) writableTask(ctx context.Context, p domain.Principal, id, action string) (*domain.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	parent, err := s.cases.Get(ctx, t.CaseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := access.CanWrite(p, parent); err != nil {
		logDenied(ctx, s.log, "task", action, p, id)
		return nil, err
	}
	return t, nil
}

// parentCase returns nil without error when the case no longer exists.
func (s *TaskService) parentCase(ctx context.Context, caseID string) (*domain.Case, error) {
	c, err := s.cases.Get(ctx, caseID)
	if errors.Is(err, store.ErrCaseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (s *TaskService) record(ctx context.Context, p domain.Principal, action string, t *domain.Task) {
	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   action,
		Entity:   domain.EntityTask,
		EntityID: t.ID,
		Metadata: map[string]interface{}{"caseId": t.CaseID, "title": t.Title},
	})
}

func taskView(t *domain.Task, parent *domain.Case, assignee *domain.User) domain.TaskView {
	v := domain.TaskView{Task: t}
	if parent != nil {
		v.Case = &domain.TaskCaseRef{
			ID:               parent.ID,
			Title:            parent.Title,
			AssignedAttorney: parent.AssignedAttorney,
			Assistants:       parent.Assistants,
		}
	}
	if assignee != nil {
		v.Assignee = assignee.Ref()
	}
	return v
}
