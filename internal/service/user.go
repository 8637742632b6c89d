package service

import (
	"context"
	"fmt"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// UserService administers accounts. Everything except the self-service
// profile and password operations is Admin only.
type UserService struct {
	users store.Users
	audit Recorder
	log   *logger.Logger
	clock clock
}

func NewUserService(s store.Set, rec Recorder, log *logger.Logger) *UserService {
	return &UserService{users: s.Users, audit: rec, log: log}
}

func (s *UserService) ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error) {
	if !access.CanManageUsers(p) {
		logDenied(ctx, s.log, "user", "list", p, "")
		return nil, ErrForbidden
	}
	users, err := s.users.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListAssistants is used to pick assistants for a case.
func (s *UserService) ListAssistants(ctx context.Context, p domain.Principal) ([]domain.UserRef, error) {
	if !access.CanCreateCases(p) {
		logDenied(ctx, s.log, "user", "list_assistants", p, "")
		return nil, ErrForbidden
	}
	role := domain.RoleAssistant
	users, err := s.users.List(ctx, &role)
	if err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	refs := make([]domain.UserRef, 0, len(users))
	for i := range users {
		refs = append(refs, *users[i].Ref())
	}
	return refs, nil
}

func (s *UserService) GetUser(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	if !access.CanManageUsers(p) {
		logDenied(ctx, s.log, "user", "get", p, id)
		return nil, ErrForbidden
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserService) CreateUser(ctx context.Context, p domain.Principal, req *domain.CreateUserRequest) (*domain.User, error) {
	if !access.CanManageUsers(p) {
		logDenied(ctx, s.log, "user", "create", p, "")
		return nil, ErrForbidden
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.clock.now()
	u := &domain.User{
		ID:           ids.NewAt(now),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.record(ctx, p.ID, domain.ActionCreate, u.ID)
	return u, nil
}

// UpdateUser changes name, email or role. Passwords are not touched.
func (s *UserService) UpdateUser(ctx context.Context, p domain.Principal, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if !access.CanManageUsers(p) {
		logDenied(ctx, s.log, "user", "update", p, id)
		return nil, ErrForbidden
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	u.UpdatedAt = s.clock.now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.record(ctx, p.ID, domain.ActionUpdate, u.ID)
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, p domain.Principal, id string) error {
	if !access.CanManageUsers(p) {
		logDenied(ctx, s.log, "user", "delete", p, id)
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.record(ctx, p.ID, domain.ActionDelete, id)
	return nil
}

// UpdateProfile renames the caller. Role and email are not self-service.
func (s *UserService) UpdateProfile(ctx context.Context, p domain.Principal, req *domain.UpdateProfileRequest) (*domain.User, error) {
	u, err := s.users.Get(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Name = req.Name
	u.UpdatedAt = s.clock.now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.record(ctx, p.ID, domain.ActionUpdate, u.ID)
	return u, nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, p domain.Principal, req *domain.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return &ValidationError{Message: "All fields required", Fields: map[string]string{
			"currentPassword": "is required",
			"newPassword":     "is required",
		}}
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		return invalid(
			fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength),
			"newPassword", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength),
		)
	}

	u, err := s.users.Get(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := auth.VerifyPassword(u.PasswordHash, req.CurrentPassword); err != nil {
		return ErrCurrentPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.clock.now()
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.record(ctx, p.ID, domain.ActionUpdate, u.ID)
	return nil
}

func (s *UserService) record(ctx context.Context, actorID, action, userID string) {
	s.audit.Record(ctx, audit.Event{
		ActorID:  actorID,
		Action:   action,
		Entity:   domain.EntityUser,
		EntityID: userID,
	})
}
