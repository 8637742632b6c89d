package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

// TokenIssuer signs session tokens. *auth.TokenManager implements it.
type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

var _ TokenIssuer = (*auth.TokenManager)(nil)

type AuthService struct {
	users  store.Users
	tokens TokenIssuer
	audit  Recorder
	log    *logger.Logger
	clock  clock
}

func NewAuthService(s store.Set, tokens TokenIssuer, rec Recorder, log *logger.Logger) *AuthService {
	return &AuthService{users: s.Users, tokens: tokens, audit: rec, log: log}
}

// Register creates an Attorney account. Any role in the payload is ignored.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
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
		Role:         domain.RoleAttorney,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, ErrEmailRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  u.ID,
		Action:   domain.ActionRegister,
		Entity:   domain.EntityUser,
		EntityID: u.ID,
	})
	return &domain.AuthResponse{Token: token, User: u.Ref()}, nil
}

// Login returns ErrInvalidCredentials for an unknown email and a wrong
// password alike.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := auth.VerifyPassword(u.PasswordHash, req.Password); err != nil {
		s.log.Info(ctx, "login rejected",
			logger.Module("auth"),
			logger.Action("login"),
			zap.String("user_id", u.ID),
		)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		ActorID:  u.ID,
		Action:   domain.ActionLogin,
		Entity:   domain.EntityUser,
		EntityID: u.ID,
	})
	return &domain.AuthResponse{Token: token, User: u.Ref()}, nil
}

// Me returns the stored account behind p.
func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.UserRef, error) {
	u, err := s.users.Get(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u.Ref(), nil
}
