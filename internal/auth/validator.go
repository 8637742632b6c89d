package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

// DefaultTokenTTL is how long a session token lives.
const DefaultTokenTTL = 8 * time.Hour

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	keys      *KeyStore
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewTokenManager(keys *KeyStore, issuer string, ttl, clockSkew time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		keys:      keys,
		issuer:    issuer,
		ttl:       ttl,
		clockSkew: clockSkew,
		now:       time.Now,
	}
}

// Issue signs a token for u with the active key.
func (m *TokenManager) Issue(u *domain.User) (string, error) {
	kid, secret, ok := m.keys.SigningKey()
	if !ok {
		return "", errors.New("no signing key loaded")
	}

	now := m.now()
	claims := &Claims{
		ID:    u.ID,
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and checks signature, issuer and expiry.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(m.clockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			// tokens without kid are signed with the active key
			kid, _, _ = m.keys.SigningKey()
		}
		secret, ok := m.keys.GetHS256Key(kid)
		if !ok {
			return nil, NewAuthError(AuthFailureUnknownKey, fmt.Sprintf("key not found for kid %s", kid), nil)
		}
		return secret, nil
	}, opts...)

	if err != nil {
		if authErr, ok := IsAuthError(err); ok {
			return nil, authErr
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(AuthFailureTokenExpired, "token expired", err)
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, NewAuthError(AuthFailureInvalidSignature, "invalid signature", err)
		}
		if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			return nil, NewAuthError(AuthFailureInvalidIssuer, "invalid issuer", err)
		}
		return nil, NewAuthError(AuthFailureUnknown, "failed to parse token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, NewAuthError(AuthFailureUnknown, fmt.Sprintf("invalid token: valid=%v", token.Valid), nil)
	}
	if err := claims.Validate(); err != nil {
		return nil, NewAuthError(AuthFailureUnknown, "invalid claims", err)
	}
	return claims, nil
}
