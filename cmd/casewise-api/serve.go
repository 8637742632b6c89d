package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/audit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/blob"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/config"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/dashboard"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/client"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/handler"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ratelimit"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/service"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/summary"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the CaseWise HTTP server with all middlewares and observability`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info(ctx, "starting casewise api",
		logger.Module("main"),
		logger.Action("serve"),
		zap.String("version", telemetry.ServiceVersion),
		zap.String("env", cfg.AppEnv),
		zap.String("storage", cfg.StorageDriver),
		zap.String("blob", cfg.BlobDriver),
	)
	httperr.ExposeErrorIDs(cfg.IsDev())

	// Telemetry is opt-in
	var tracerProvider *sdktrace.TracerProvider
	var meterProvider *sdkmetric.MeterProvider
	var metrics *telemetry.Metrics

	if cfg.TelemetryEnabled() {
		log.Info(ctx, "initializing telemetry", zap.String("endpoint", cfg.OTELExporterEndpoint))

		tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.AppEnv, cfg.OTELExporterEndpoint, cfg.OTELSamplingRatio)
		if err != nil {
			log.Warn(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}

		mp, m, err := telemetry.InitMetrics(ctx, cfg.OTELServiceName, cfg.AppEnv, cfg.OTELExporterEndpoint)
		if err != nil {
			log.Warn(ctx, "failed to initialize metrics, continuing without metrics", zap.Error(err))
		} else {
			meterProvider = mp
			metrics = m
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := meterProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown meter provider", zap.Error(err))
				}
			}()
		}

		log.Info(ctx, "telemetry initialized", zap.Bool("tracing", tracerProvider != nil), zap.Bool("metrics", metrics != nil))
	} else {
		log.Info(ctx, "telemetry disabled (opt-in only or missing endpoint)")
	}
	prom := telemetry.NewProm().WithOTLP(metrics)

	// Storage
	set, pool, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	var debugPool handler.DBPool
	var ready Pinger
	if pool != nil {
		defer pool.Close()
		debugPool, ready = pool, pool
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Rate limiting: Redis when configured, otherwise per instance
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info(ctx, "redis connected")
		limiter = ratelimit.NewRedisLimiter(redisClient, prom)
	} else {
		log.Info(ctx, "REDIS_URL not set, using in-process rate limiter")
		limiter = ratelimit.NewLocalLimiter(prom)
	}

	tokens, err := newTokenManager(cfg)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid AUDIT_TIMEZONE: %w", err)
	}

	trail := audit.New(set.Audit, set.Users, set.Cases, log,
		audit.WithObserver(prom),
		audit.WithLocation(loc),
	)
	engine := summary.NewEngine(cfg.GetRequiredDocuments(), loc)

	// Services
	authService := service.NewAuthService(set, tokens, trail, log)
	userService := service.NewUserService(set, trail, log)
	clientService := service.NewClientService(set, trail, log)
	caseService := service.NewCaseService(set, trail, engine, log)
	taskService := service.NewTaskService(set, trail, log)
	documentService := service.NewDocumentService(set, blobs, trail, log, cfg.MaxUploadBytes).WithUploadObserver(prom)
	searchService := service.NewSearchService(set)

	r := buildRouter(RouterDeps{
		Cfg:              cfg,
		Log:              log,
		Tokens:           tokens,
		Users:            set.Users,
		Idempotency:      set.Idempotency,
		RateLimiter:      limiter,
		Metrics:          metrics,
		Prom:             prom,
		DB:               ready,
		AuthHandler:      handler.NewAuthHandler(authService),
		UserHandler:      handler.NewUserHandler(userService),
		ClientHandler:    handler.NewClientHandler(clientService),
		CaseHandler:      handler.NewCaseHandler(caseService),
		TaskHandler:      handler.NewTaskHandler(taskService),
		DocumentHandler:  handler.NewDocumentHandler(documentService),
		DashboardHandler: handler.NewDashboardHandler(dashboard.New(set, dashboard.WithLocation(loc))),
		AuditHandler:     handler.NewAuditHandler(trail),
		SearchHandler:    handler.NewSearchHandler(searchService),
		DebugHandler:     handler.NewDebugHandler(cfg.AppEnv, debugPool),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// uploads stream up to MAX_UPLOAD_BYTES
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Info(ctx, "shutdown signal received, starting graceful shutdown")
	case err := <-serverErr:
		log.Error(ctx, "failed to start server", zap.Error(err))
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}
	// audit writes still in flight
	if err := trail.Flush(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "audit flush incomplete", zap.Error(err))
	}

	log.Info(shutdownCtx, "shutdown complete")
	return nil
}

// newTokenManager loads every configured secret and signs with JWT_KEY_ID.
func newTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	ks := auth.NewKeyStore()
	for kid, secret := range cfg.GetJWTKeys() {
		ks.LoadHS256Key(kid, []byte(secret))
	}
	if err := ks.Activate(cfg.JWTKeyID); err != nil {
		return nil, fmt.Errorf("failed to activate JWT key: %w", err)
	}
	skew := time.Duration(cfg.JWTClockSkewSeconds) * time.Second
	return auth.NewTokenManager(ks, cfg.JWTIssuer, cfg.JWTExpiresIn, skew), nil
}

func openBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.BlobDriver == config.BlobS3 {
		s, err := blob.NewS3Store(ctx, blob.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		}, client.New(client.DefaultTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
		}
		return s, nil
	}
	s, err := blob.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return s, nil
}
