package service

import (
	"context"
	"fmt"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// ClientService manages the client directory. Reads are open to every role.
type ClientService struct {
	clients store.Clients
	audit   Recorder
	log     *logger.Logger
	clock   clock
}

func NewClientService(s store.Set, rec Recorder, log *logger.Logger) *ClientService {
	return &ClientService{clients: s.Clients, audit: rec, log: log}
}

func (s *ClientService) ListClients(ctx context.Context, params domain.ListClientsParams) ([]domain.Client, error) {
	clients, err := s.clients.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	c, err := s.clients.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (s *ClientService) CreateClient(ctx context.Context, p domain.Principal, req *domain.CreateClientRequest) (*domain.Client, error) {
	if !access.CanWriteClients(p) {
		logDenied(ctx, s.log, "client", "create", p, "")
		return nil, ErrForbidden
	}

	now := s.clock.now()
	c := &domain.Client{
		ID:        ids.NewAt(now),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
		CreatedBy: p.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.record(ctx, p, domain.ActionCreate, c)
	return c, nil
}

func (s *ClientService) UpdateClient(ctx context.Context, p domain.Principal, id string, req *domain.UpdateClientRequest) (*domain.Client, error) {
	if !access.CanWriteClients(p) {
		logDenied(ctx, s.log, "client", "update", p, id)
		return nil, ErrForbidden
	}

	c, err := s.clients.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	c.UpdatedAt = s.clock.now()

	if err := s.clients.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	s.record(ctx, p, domain.ActionUpdate, c)
	return c, nil
}

// DeleteClient leaves cases that reference the client untouched.
func (s *ClientService) DeleteClient(ctx context.Context, p domain.Principal, id string) error {
	if !access.CanWriteClients(p) {
		logDenied(ctx, s.log, "client", "delete", p, id)
		return ErrForbidden
	}

	c, err := s.clients.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}
	if err := s.clients.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}

	s.record(ctx, p, domain.ActionDelete, c)
	return nil
}

func (s *ClientService) record(ctx context.Context, p domain.Principal, action string, c *domain.Client) {
	s.audit.Record(ctx, audit.Event{
		ActorID:  p.ID,
		Action:   action,
		Entity:   domain.EntityClient,
		EntityID: c.ID,
		Metadata: map[string]interface{}{"name": c.Name},
	})
}
