package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

// Claims is the session token payload: the user id, role and email as of
// login, plus the registered claims.
type Claims struct {
	ID    string      `json:"id"`
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
	jwt.RegisteredClaims
}

// Validate performs additional validation on custom claims
func (c *Claims) Validate() error {
	if c.ID == "" {
		return jwt.ErrTokenInvalidClaims
	}
	if !c.Role.IsValid() {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
