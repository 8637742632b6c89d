package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/config"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/docs"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/handler"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/middleware"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ratelimit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/telemetry"
)

// Pinger is the readiness dependency; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps contém as dependências necessárias para construir o router.
type RouterDeps struct {
	Cfg         *config.Config
	Log         *logger.Logger
	Tokens      *auth.TokenManager
	Users       auth.UserGetter
	Idempotency store.Idempotency
	RateLimiter ratelimit.Limiter
	Metrics     *telemetry.Metrics
	Prom        *telemetry.Prom
	DB          Pinger // nil com storage em memória

	// Handlers
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	ClientHandler    *handler.ClientHandler
	CaseHandler      *handler.CaseHandler
	TaskHandler      *handler.TaskHandler
	DocumentHandler  *handler.DocumentHandler
	DashboardHandler *handler.DashboardHandler
	AuditHandler     *handler.AuditHandler
	SearchHandler    *handler.SearchHandler
	DebugHandler     *handler.DebugHandler
}

var (
	staff     = []domain.Role{domain.RoleAdmin, domain.RoleAttorney}
	adminOnly = []domain.Role{domain.RoleAdmin}
)

// buildRouter constrói o chi.Router com todos os middlewares e rotas.
func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	prom := deps.Prom
	if prom == nil {
		prom = telemetry.NewProm()
	}
	serviceName := deps.Cfg.OTELServiceName
	if serviceName == "" {
		serviceName = "casewise-api"
	}

	// Global middlewares
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Cfg.GetCORSOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderIdempotencyKey, middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(telemetry.OTelMiddleware(serviceName))
	r.Use(telemetry.MetricsMiddleware(deps.Metrics, prom))

	// Public routes
	health := func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, `{"status":"ok"}`)
	}
	r.Get("/health", health)
	r.Get("/ready", readyHandler(deps))

	r.Get("/openapi.yaml", docs.OpenAPIHandler().ServeHTTP)
	r.Get("/docs", docs.ScalarDocsHandler("/openapi.yaml").ServeHTTP)
	r.Get("/metrics", metricsHandler(deps.Cfg.MetricsToken, prom.Handler()))

	authenticate := auth.AuthMiddleware(deps.Tokens, deps.Users)

	// Debug routes (dev-only)
	if deps.Cfg.IsDev() && deps.DebugHandler != nil {
		r.Route("/debug", func(r chi.Router) {
			r.With(authenticate).Get("/auth", deps.DebugHandler.GetAuthDebug)
			r.Get("/db/ping", deps.DebugHandler.PingDB)
		})
	}

	idempotent := func(next http.Handler) http.Handler { return next }
	if deps.Idempotency != nil {
		idempotent = middleware.IdempotencyMiddleware(deps.Idempotency)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)
		if deps.AuthHandler != nil {
			r.Post("/auth/register", deps.AuthHandler.Register)
			r.Post("/auth/login", deps.AuthHandler.Login)
		}
		r.Group(func(r chi.Router) {
			protectedRoutes(r, deps, authenticate, idempotent)
		})
	})

	return r
}

// protectedRoutes mounts everything that needs a principal.
func protectedRoutes(r chi.Router, deps RouterDeps, authenticate, idempotent func(http.Handler) http.Handler) {
	staffOnly := auth.RequireRoles(staff...)

	r.Use(authenticate)
	r.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.Cfg.RateLimitPerUserPerMin))

	if deps.AuthHandler != nil {
		r.Get("/auth/me", deps.AuthHandler.Me)
		r.Post("/auth/logout", deps.AuthHandler.Logout)
	}

	if deps.UserHandler != nil {
		r.Route("/users", func(r chi.Router) {
			r.With(staffOnly).Get("/assistants", deps.UserHandler.ListAssistants)
			r.Put("/profile", deps.UserHandler.UpdateProfile)
			r.Put("/change-password", deps.UserHandler.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(adminOnly...))
				r.Get("/", deps.UserHandler.ListUsers)
				r.With(idempotent).Post("/", deps.UserHandler.CreateUser)
				r.Get("/{id}", deps.UserHandler.GetUser)
				r.Put("/{id}", deps.UserHandler.UpdateUser)
				r.Delete("/{id}", deps.UserHandler.DeleteUser)
			})
		})
	}

	if deps.ClientHandler != nil {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", deps.ClientHandler.ListClients)
			r.With(staffOnly, idempotent).Post("/", deps.ClientHandler.CreateClient)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.ClientHandler.GetClient)
				r.With(staffOnly).Put("/", deps.ClientHandler.UpdateClient)
				r.With(staffOnly).Delete("/", deps.ClientHandler.DeleteClient)
			})
		})
	}

	if deps.CaseHandler != nil {
		r.Route("/cases", func(r chi.Router) {
			r.Get("/", deps.CaseHandler.ListCases)
			r.With(staffOnly, idempotent).Post("/", deps.CaseHandler.CreateCase)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.CaseHandler.GetCase)
				r.With(staffOnly).Put("/", deps.CaseHandler.UpdateCase)
				r.With(staffOnly).Delete("/", deps.CaseHandler.DeleteCase)
				r.With(staffOnly).Post("/add-assistant", deps.CaseHandler.AddAssistant)
				r.With(staffOnly).Delete("/remove-assistant/{assistantId}", deps.CaseHandler.RemoveAssistant)
			})
		})
	}

	// write permission comes from the parent case
	if deps.TaskHandler != nil {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", deps.TaskHandler.ListTasks)
			r.With(idempotent).Post("/", deps.TaskHandler.CreateTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.TaskHandler.GetTask)
				r.Put("/", deps.TaskHandler.UpdateTask)
				r.Delete("/", deps.TaskHandler.DeleteTask)
			})
		})
	}

	if deps.DocumentHandler != nil {
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", deps.DocumentHandler.ListDocuments)
			r.With(idempotent).Post("/upload", deps.DocumentHandler.UploadDocument)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/download", deps.DocumentHandler.DownloadDocument)
				r.Put("/", deps.DocumentHandler.UpdateDocument)
				r.Delete("/", deps.DocumentHandler.DeleteDocument)
			})
		})
	}

	if deps.DashboardHandler != nil {
		r.Get("/dashboard/overview", deps.DashboardHandler.Overview)
		r.Get("/dashboard/attention", deps.DashboardHandler.Attention)
	}
	if deps.AuditHandler != nil {
		r.With(staffOnly).Get("/audit/export", deps.AuditHandler.Export)
	}
	if deps.SearchHandler != nil {
		r.Get("/search", deps.SearchHandler.Search)
	}
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func readyHandler(deps RouterDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.DB == nil {
			writeStatus(w, http.StatusOK, `{"status":"ready","storage":"memory"}`)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.DB.Ping(ctx); err != nil {
			deps.Log.Error(ctx, "readiness check failed: database unavailable",
				logger.Module("http"),
				logger.Action("ready"),
				zap.Error(err),
			)
			writeStatus(w, http.StatusServiceUnavailable, `{"status":"error","message":"database unavailable"}`)
			return
		}
		writeStatus(w, http.StatusOK, `{"status":"ready"}`)
	}
}

// metricsHandler guards the scrape endpoint with token when one is set. The
// token is accepted as a bearer credential or in X-Metrics-Token.
func metricsHandler(token string, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			got := r.Header.Get("X-Metrics-Token")
			if got == "" {
				if scheme, rest, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
					got = strings.TrimSpace(rest)
				}
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidToken, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	}
}
