package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/summary"
)

type CaseService struct {
	cases   store.Cases
	clients store.Clients
	users   store.Users
	tasks   store.Tasks
	docs    store.Documents
	audit   Recorder
	summary *summary.Engine
	log     *logger.Logger
	clock   clock
}

func NewCaseService(s store.Set, rec Recorder, engine *summary.Engine, log *logger.Logger) *CaseService {
	if engine == nil {
		engine = summary.NewEngine(nil, nil)
	}
	return &CaseService{
		cases:   s.Cases,
		clients: s.Clients,
		users:   s.Users,
		tasks:   s.Tasks,
		docs:    s.Documents,
		audit:   rec,
		summary: engine,
		log:     log,
	}
}

// ListCases retrieves the cases p can see, newest first, with client and
// attorney populated.
func (s *CaseService) ListCases(ctx context.Context, p domain.Principal, params domain.ListCasesParams) ([]domain.CaseView, error) {
	cases, err := s.cases.List(ctx, access.CaseScope(p), params, 0)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	views := make([]domain.CaseView, 0, len(cases))
	if len(cases) == 0 {
		return views, nil
	}

	clientIDs := make([]string, 0, len(cases))
	userIDs := make([]string, 0, len(cases))
	for _, c := range cases {
		clientIDs = append(clientIDs, c.ClientID)
		userIDs = append(userIDs, c.AssignedAttorney)
	}
	clients, err := s.clients.GetMany(ctx, clientIDs)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	users, err := s.users.GetMany(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load attorneys: %w", err)
	}

	for i := range cases {
		c := &cases[i]
		v := domain.CaseView{Case: c}
		if cl, ok := clients[c.ClientID]; ok {
			v.Client = cl.Ref()
		}
		if u, ok := users[c.AssignedAttorney]; ok {
			v.Attorney = u.Ref()
		}
		views = append(views, v)
	}
	return views, nil
}

// GetCase returns the case page. The caller must be able to read the case.
func (s *CaseService) GetCase(ctx context.Context, p domain.Principal, id string) (*domain.CaseDetail, error) {
	c, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if !access.CanReadCase(p, c) {
		logDenied(ctx, s.log, "case", "get", p, id)
		return nil, ErrForbidden
	}

	var (
		tasks []domain.Task
		docs  []domain.Document
	)
	filter := access.Scope{All: true}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.List(gctx, filter, domain.ListTasksParams{CaseID: &c.ID})
		if err != nil {
			return fmt.Errorf("list case tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		docs, err = s.docs.List(gctx, filter, domain.ListDocumentsParams{CaseID: &c.ID})
		if err != nil {
			return fmt.Errorf("list case documents: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view, client, err := s.populate(ctx, c)
	if err != nil {
		return nil, err
	}

	assigneeIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		assigneeIDs = append(assigneeIDs, t.AssignedTo)
	}
	assignees, err := s.users.GetMany(ctx, assigneeIDs)
	if err != nil {
		return nil, fmt.Errorf("load assignees: %w", err)
	}
	taskViews := make([]domain.TaskView, 0, len(tasks))
	for i := range tasks {
		tv := domain.TaskView{Task: &tasks[i]}
		if u, ok := assignees[tasks[i].AssignedTo]; ok {
			tv.Assignee = u.Ref()
		}
		taskViews = append(taskViews, tv)
	}

	return &domain.CaseDetail{
		Case:      view,
		Tasks:     taskViews,
		Documents: docs,
		Summary:   s.summary.ForCase(c, client, tasks, docs, s.clock.now()),
	}, nil
}

// CreateCase opens a case assigned to the caller.
func (s *CaseService) CreateCase(ctx context.Context, p domain.Principal, req *domain.CreateCaseRequest) (*domain.Case, error) {
	if !access.CanCreateCases(p) {
		logDenied(ctx, s.log, "case", "create", p, "")
		return nil, ErrForbidden
	}
	if err := s.ensureClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	now := s.clock.now()
	c := &domain.Case{
		ID:               ids.NewAt(now),
		Title:            req.Title,
		Description:      req.Description,
		ClientID:         req.ClientID,
		AssignedAttorney: p.ID,
		Assistants:       []string{},
		Status:           domain.CaseStatusOpen,
		Priority:         domain.PriorityMedium,
		StartDate:        now,
		Deadline:         req.Deadline.Time,
		Tags:             req.Tags,
		CreatedBy:        p.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.Priority != nil {
		c.Priority = *req.Priority
	}
	if req.StartDate != nil {
		c.StartDate = req.StartDate.Time
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   domain.ActionCreate,
		Entity:   domain.EntityCase,
		EntityID: c.ID,
		Metadata: map[string]interface{}{"title": c.Title},
	})
	return c, nil
}

// UpdateCase applies the non-nil fields of req. Only Admin and the assigned
// Attorney may change a case.
func (s *CaseService) UpdateCase(ctx context.Context, p domain.Principal, id string, req *domain.UpdateCaseRequest) (*domain.Case, error) {
	c, err := s.writableCase(ctx, p, id, "update")
	if err != nil {
		return nil, err
	}

	if req.ClientID != nil && *req.ClientID != c.ClientID {
		if err := s.ensureClient(ctx, *req.ClientID); err != nil {
			return nil, err
		}
		c.ClientID = *req.ClientID
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.AssignedAttorney != nil && *req.AssignedAttorney != c.AssignedAttorney {
		if err := s.ensureAttorney(ctx, *req.AssignedAttorney); err != nil {
			return nil, err
		}
		c.AssignedAttorney = *req.AssignedAttorney
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.Priority != nil {
		c.Priority = *req.Priority
	}
	if req.StartDate != nil {
		c.StartDate = req.StartDate.Time
	}
	if req.Deadline != nil {
		c.Deadline = req.Deadline.Time
	}
	if req.Tags != nil {
		c.Tags = *req.Tags
	}
	c.UpdatedAt = s.clock.now()

	if err := s.cases.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   domain.ActionUpdate,
		Entity:   domain.EntityCase,
		EntityID: c.ID,
		Metadata: map[string]interface{}{"title": c.Title},
	})
	return c, nil
}

func (s *CaseService) ensureAttorney(ctx context.Context, id string) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrAttorneyNotFound
		}
		return fmt.Errorf("get attorney: %w", err)
	}
	if u.Role != domain.RoleAttorney {
		return ErrNotAttorney
	}
	return nil
}

// DeleteCase removes the case row only. Its tasks and documents stay.
func (s *CaseService) DeleteCase(ctx context.Context, p domain.Principal, id string) error {
	c, err := s.writableCase(ctx, p, id, "delete")
	if err != nil {
		return err
	}
	if err := s.cases.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("delete case: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   domain.ActionDelete,
		Entity:   domain.EntityCase,
		EntityID: c.ID,
		Metadata: map[string]interface{}{"title": c.Title},
	})
	return nil
}

// AddAssistant lists assistantID on the case. Adding someone already listed
// changes nothing and is not audited.
func (s *CaseService) AddAssistant(ctx context.Context, p domain.Principal, caseID, assistantID string) (*domain.CaseView, error) {
	if assistantID == "" {
		return nil, invalid("assistantId is required", "assistantId", "is required")
	}

	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := access.CanManageAssistants(p, c); err != nil {
		logDenied(ctx, s.log, "case", "add_assistant", p, caseID)
		return nil, ErrManageAssistants
	}

	assistant, err := s.users.Get(ctx, assistantID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrAssistantNotFound
		}
		return nil, fmt.Errorf("get assistant: %w", err)
	}
	if assistant.Role != domain.RoleAssistant {
		return nil, ErrNotAssistant
	}

	added, err := s.cases.AddAssistant(ctx, c.ID, assistant.ID)
	if err != nil {
		return nil, fmt.Errorf("add assistant: %w", err)
	}
	if added {
		s.audit.Record(ctx, audit.Event{
			ActorID:  p.ID,
			Action:   domain.ActionAddAssistant,
			Entity:   domain.EntityCase,
			EntityID: c.ID,
			Metadata: map[string]interface{}{"assistantId": assistant.ID},
		})
	} else {
		s.log.Debug(ctx, "assistant already assigned",
			logger.Module("case"),
			logger.Action("add_assistant"),
			zap.String("case_id", c.ID),
			zap.String("assistant_id", assistant.ID),
		)
	}
	return s.reload(ctx, c.ID)
}

// RemoveAssistant drops assistantID from the case.
func (s *CaseService) RemoveAssistant(ctx context.Context, p domain.Principal, caseID, assistantID string) (*domain.CaseView, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := access.CanManageAssistants(p, c); err != nil {
		logDenied(ctx, s.log, "case", "remove_assistant", p, caseID)
		return nil, ErrManageAssistants
	}

	removed, err := s.cases.RemoveAssistant(ctx, c.ID, assistantID)
	if err != nil {
		return nil, fmt.Errorf("remove assistant: %w", err)
	}
	if !removed {
		return nil, ErrAssistantNotAssigned
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   domain.ActionRemoveAssistant,
		Entity:   domain.EntityCase,
		EntityID: c.ID,
		Metadata: map[string]interface{}{"assistantId": assistantID},
	})
	return s.reload(ctx, c.ID)
}

// writableCase loads the case and checks that p may modify the case itself.
// Assistants may work on tasks and documents of their cases but never on the
// case record.
func (s *CaseService) writableCase(ctx context.Context, p domain.Principal, id, action string) (*domain.Case, error) {
	c, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if !access.CanCreateCases(p) {
		logDenied(ctx, s.log, "case", action, p, id)
		return nil, ErrForbidden
	}
	if err := access.CanWrite(p, c); err != nil {
		logDenied(ctx, s.log, "case", action, p, id)
		return nil, err
	}
	return c, nil
}

func (s *CaseService) ensureClient(ctx context.Context, clientID string) error {
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrClientNotFound) {
			return ErrInvalidClient
		}
		return fmt.Errorf("get client: %w", err)
	}
	return nil
}

func (s *CaseService) reload(ctx context.Context, id string) (*domain.CaseView, error) {
	c, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload case: %w", err)
	}
	view, _, err := s.populate(ctx, c)
	return view, err
}

// populate resolves client, attorney and assistant references.
func (s *CaseService) populate(ctx context.Context, c *domain.Case) (*domain.CaseView, *domain.Client, error) {
	view := &domain.CaseView{Case: c}

	client, err := s.clients.Get(ctx, c.ClientID)
	switch {
	case err == nil:
		view.Client = client.Ref()
	case errors.Is(err, store.ErrClientNotFound):
		// dangling reference, rendered as N/A
	default:
		return nil, nil, fmt.Errorf("load client: %w", err)
	}

	userIDs := append([]string{c.AssignedAttorney}, c.Assistants...)
	users, err := s.users.GetMany(ctx, userIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load case users: %w", err)
	}
	if u, ok := users[c.AssignedAttorney]; ok {
		view.Attorney = u.Ref()
	}
	view.AssistantUsers = make([]domain.UserRef, 0, len(c.Assistants))
	for _, id := range c.Assistants {
		if u, ok := users[id]; ok {
			view.AssistantUsers = append(view.AssistantUsers, *u.Ref())
		}
	}
	return view, client, nil
}
