// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"

	"github.com/wattgrid/marketplace-api/internal/admin"
	"github.com/wattgrid/marketplace-api/internal/audit"
	"github.com/wattgrid/marketplace-api/internal/auth"
	"github.com/wattgrid/marketplace-api/internal/config"
	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/enquiry"
	"github.com/wattgrid/marketplace-api/internal/health"
	"github.com/wattgrid/marketplace-api/internal/metrics"
	"github.com/wattgrid/marketplace-api/internal/middleware"
	"github.com/wattgrid/marketplace-api/internal/notify"
	"github.com/wattgrid/marketplace-api/internal/payment"
	"github.com/wattgrid/marketplace-api/internal/quotation"
	"github.com/wattgrid/marketplace-api/internal/server"
	"github.com/wattgrid/marketplace-api/internal/storage"
	"github.com/wattgrid/marketplace-api/internal/subscription"
	"github.com/wattgrid/marketplace-api/internal/user"
	"github.com/wattgrid/marketplace-api/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool(
		"generate-keys",
		false,
		"write a fresh ES256 key pair to the configured paths and exit",
	)
	flag.Parse()

	if *generateKeys {
		if err := writeKeys(*configPath); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func writeKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	core.SetExposeErrors(cfg.IsDevelopment())

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db.DB, migrations.FS); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	registry := metrics.New()
	auditor := audit.NewLogger(db.DB, logger)

	transport, err := notify.NewTransport(cfg.Mail, logger)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(logger, registry, notify.DefaultTaskTimeout)
	logger.Info("mail transport ready", "transport", cfg.Mail.Transport)

	var documents user.DocumentStore
	cloudinary, err := storage.NewCloudinary(cfg.Cloudinary)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Warn("cloudinary not configured, KYC uploads disabled")
	case err != nil:
		return err
	default:
		documents = cloudinary
	}

	gateway := payment.NewRazorpayClient(cfg.Razorpay)

	userRepo := user.NewRepository(db.DB)
	quotationRepo := quotation.NewRepository(db.DB)

	subscriptionRepo := subscription.NewRepository(db.DB)
	subscriptionSvc := subscription.NewService(
		subscriptionRepo,
		gateway,
		quotationRepo,
		auditor,
		cfg.Marketplace,
	)

	notifier := notify.NewNotifier(
		dispatcher,
		transport,
		user.NewContactBook(userRepo),
		subscriptionSvc,
		cfg.Mail.FrontendURL,
	)

	userSvc := user.NewService(userRepo, redis.Client, documents, notifier, auditor)
	userHandler := user.NewHandler(userSvc, cfg.Upload.MaxBytes)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		notifier,
		auditor,
		core.NewPasswordHasher(cfg.Password),
		cfg.OTP,
	)
	authHandler := auth.NewHandler(authSvc)

	enquiryRepo := enquiry.NewRepository(db.DB)
	enquirySvc := enquiry.NewService(
		enquiryRepo,
		subscriptionSvc,
		userSvc,
		quotationRepo,
		notifier,
		auditor,
	)
	enquiryHandler := enquiry.NewHandler(enquirySvc)

	quotationSvc := quotation.NewService(
		quotationRepo,
		enquirySvc,
		subscriptionSvc,
		notifier,
		registry,
		auditor,
		cfg.Marketplace.FreeMonthlyQuotations,
	)
	quotationHandler := quotation.NewHandler(quotationSvc)

	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Repository: admin.NewRepository(db.DB),
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.ClientInfo)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Instrument(registry))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Handle("/metrics", registry.Handler())
	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	limiter := func(name string, limit redis_rate.Limit) func(http.Handler) http.Handler {
		return middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    limit,
			KeyFunc:  middleware.KeyByIPWithPrefix(name),
			FailOpen: true,
			OnLimited: func(*http.Request, *redis_rate.Result) {
				registry.RateLimitHit(name)
			},
		}).Handler
	}

	generalLimiter := limiter("api", middleware.PerWindow(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
	))
	loginLimiter := limiter("login", middleware.PerWindow(
		cfg.RateLimit.LoginRequests,
		cfg.RateLimit.LoginWindow,
	))
	otpLimiter := limiter("otp", middleware.PerWindow(
		cfg.RateLimit.OTPRequests,
		cfg.RateLimit.OTPWindow,
	))

	authenticator := middleware.Authenticator(jwtManager, userSvc)

	router.Route("/api", func(r chi.Router) {
		r.Use(generalLimiter)

		authHandler.RegisterRoutes(r, loginLimiter, otpLimiter)

		subscriptionHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Route("/enquiries", func(r chi.Router) {
				enquiryHandler.RegisterRoutes(r)
				quotationHandler.RegisterEnquiryRoutes(r)
			})
			quotationHandler.RegisterRoutes(r)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(generalLimiter)
		r.Use(authenticator)
		r.Use(middleware.RequireAdmin)

		userHandler.RegisterAdminRoutes(r)
		enquiryHandler.RegisterAdminRoutes(r)
		subscriptionHandler.RegisterAdminRoutes(r)
		adminHandler.RegisterRoutes(r)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("notification drain error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
