package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	claimsContextKey    contextKey = "claims"
)

// UserGetter loads the account a token belongs to.
type UserGetter interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

// AuthMiddleware verifies the bearer token, reloads the user so that role
// changes and deletions take effect immediately, and injects the Principal.
func AuthMiddleware(tokens *TokenManager, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn(ctx, "missing authorization header",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("reason", string(AuthFailureMissingAuthorization)),
				)
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeMissingAuthorization, "Not authorized, no token")
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				log.Warn(ctx, "invalid authorization header format",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("reason", string(AuthFailureInvalidScheme)),
				)
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidScheme, "Not authorized, invalid authorization scheme")
				return
			}
			tokenString = strings.TrimSpace(tokenString)

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				reason := AuthFailureUnknown
				if authErr, ok := IsAuthError(err); ok {
					reason = authErr.Reason
				}
				log.Warn(ctx, "token validation failed",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("reason", string(reason)),
					zap.String("token", maskToken(tokenString)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				if reason == AuthFailureTokenExpired {
					httperr.Unauthorized401(w, ctx, httperr.ErrCodeTokenExpired, "Not authorized, token expired")
					return
				}
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "Not authorized, token failed")
				return
			}

			user, err := users.Get(ctx, claims.ID)
			if err != nil || user == nil {
				log.Warn(ctx, "token user not found",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("reason", string(AuthFailureUserNotFound)),
					zap.String("token_user_id", claims.ID),
				)
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "Not authorized, user not found")
				return
			}

			principal := user.Principal()
			ctx = WithPrincipal(ctx, principal)
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			ctx = logger.SetUserIDInContext(ctx, principal.ID)
			ctx = logger.SetRoleInContext(ctx, string(principal.Role))

			log.Debug(ctx, "authenticated request",
				logger.Module("auth"),
				logger.Action("authenticate"),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects principals whose role is not listed with 403.
func RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := GetPrincipal(ctx)
			if !ok {
				httperr.Unauthorized401(w, ctx, httperr.ErrCodeMissingAuthorization, "Not authorized")
				return
			}
			if !slices.Contains(roles, p.Role) {
				logger.GetLogger(ctx).Warn(ctx, "role not permitted",
					logger.Module("auth"),
					logger.Action("authorize"),
					zap.String("path", r.URL.Path),
				)
				httperr.Forbidden403(w, ctx, httperr.ErrCodeRoleNotPermitted, "Forbidden: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// GetPrincipal retrieves the authenticated caller.
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(domain.Principal)
	return p, ok
}

// GetClaims retrieves the verified token claims.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
