package auth

import (
	"context"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

// SetPrincipalForTesting injects a Principal the way AuthMiddleware does.
// This should only be used in tests to simulate authenticated requests
func SetPrincipalForTesting(ctx context.Context, p domain.Principal) context.Context {
	ctx = WithPrincipal(ctx, p)
	return context.WithValue(ctx, claimsContextKey, &Claims{ID: p.ID, Role: p.Role, Email: p.Email})
}
