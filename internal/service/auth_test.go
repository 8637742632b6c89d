package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
)

func newAuthService(t *testing.T, f *fixture) (*AuthService, *auth.TokenManager) {
	t.Helper()
	ks := auth.NewKeyStore()
	ks.LoadHS256Key("test", bytes.Repeat([]byte("k"), 32))
	tokens := auth.NewTokenManager(ks, "casewise-api", time.Hour, 0)
	return NewAuthService(f.set, tokens, f.trail, logger.NewNop()), tokens
}

func TestRegister_AlwaysAttorney(t *testing.T) {
	f := newFixture(t)
	svc, tokens := newAuthService(t, f)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{Name: "Lee", Email: "lee@firm.test", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAttorney, resp.User.Role)

	claims, err := tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.ID)
	assert.Equal(t, domain.RoleAttorney, claims.Role)

	_, err = svc.Register(ctx, &domain.RegisterRequest{Name: "Lee", Email: "LEE@firm.test", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrEmailRegistered)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionRegister, entries[0].Action)
	assert.Equal(t, resp.User.ID, *entries[0].UserID)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(t, f)
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.RegisterRequest{Name: "Lee", Email: "lee@firm.test", Password: "hunter22"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &domain.LoginRequest{Email: "lee@firm.test", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Lee", resp.User.Name)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "lee@firm.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "nobody@firm.test", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, 1, countAction(f.entries(t), domain.ActionLogin))
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(t, f)

	ref, err := svc.Me(context.Background(), sam)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, ref.Role)

	_, err = svc.Me(context.Background(), domain.Principal{ID: "gone"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
