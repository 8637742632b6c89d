package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
)

// DBPool is the part of pgxpool.Pool used by the debug endpoints.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DebugHandler provides debug endpoints for development. Outside dev every
// endpoint answers 404.
type DebugHandler struct {
	appEnv string
	pool   DBPool
}

// NewDebugHandler creates a debug handler. pool may be nil when the memory
// store is in use.
func NewDebugHandler(appEnv string, pool DBPool) *DebugHandler {
	if appEnv == "" {
		appEnv = "production"
	}
	return &DebugHandler{appEnv: appEnv, pool: pool}
}

type DebugAuthResponse struct {
	OK   bool           `json:"ok"`
	Data *DebugAuthData `json:"data"`
}

// DebugAuthData describes the identity resolved for the request.
type DebugAuthData struct {
	UserID      string  `json:"userId"`
	Role        string  `json:"role"`
	TokenIssuer *string `json:"tokenIssuer,omitempty"`
	ExpiresAt   *string `json:"expiresAt,omitempty"`
}

func (h *DebugHandler) enabled(w http.ResponseWriter, r *http.Request) bool {
	if h.appEnv == "dev" || h.appEnv == "development" {
		return true
	}
	ctx := r.Context()
	logger.GetLogger(ctx).Warn(ctx, "debug endpoint accessed in non-dev environment",
		zap.String("app_env", h.appEnv),
		zap.String("path", r.URL.Path),
	)
	http.NotFound(w, r)
	return false
}

// GetAuthDebug handles GET /debug/auth
func (h *DebugHandler) GetAuthDebug(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w, r) {
		return
	}
	ctx := r.Context()

	p, ok := principal(w, r)
	if !ok {
		return
	}

	data := &DebugAuthData{UserID: p.ID, Role: string(p.Role)}
	if claims, ok := auth.GetClaims(ctx); ok {
		if claims.Issuer != "" {
			iss := claims.Issuer
			data.TokenIssuer = &iss
		}
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.UTC().Format(time.RFC3339)
			data.ExpiresAt = &exp
		}
	}

	writeJSON(w, http.StatusOK, DebugAuthResponse{OK: true, Data: data})
}

// PingDB handles GET /debug/db/ping with a SELECT 1.
func (h *DebugHandler) PingDB(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w, r) {
		return
	}
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	if h.pool == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "storage": "memory"})
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var result int
	if err := h.pool.QueryRow(pingCtx, "SELECT 1").Scan(&result); err != nil {
		fields := []zap.Field{zap.Error(err)}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			fields = append(fields, zap.String("pgcode", pgErr.Code))
		}
		log.Error(ctx, "db_ping_failed", fields...)
		httperr.InternalError(w, ctx)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "storage": "postgres"})
}
