package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/zora-edu/zora-api/cmd/mainconfig"
	"github.com/zora-edu/zora-api/internal/api/router"
	"github.com/zora-edu/zora-api/internal/app/bootstrap"
	"github.com/zora-edu/zora-api/internal/checkout"
	appconfig "github.com/zora-edu/zora-api/internal/config"
	httpmiddleware "github.com/zora-edu/zora-api/internal/http/middleware"
	"github.com/zora-edu/zora-api/internal/notify"
	"github.com/zora-edu/zora-api/internal/observability/metrics"
	"github.com/zora-edu/zora-api/internal/plans"
	"github.com/zora-edu/zora-api/internal/submissions"
	"github.com/zora-edu/zora-api/internal/wizard"
	"github.com/zora-edu/zora-api/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting zora API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Without a usable catalog no recommendation can be produced, so refuse to start.
	catalog, err := plans.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load plan catalog: %w", err)
	}
	logger.Info("plan catalog loaded", "plans", catalog.Len(), "path", cfg.CatalogPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	sqlDB, err := bootstrap.BuildSQLDB(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		defer sqlDB.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsHandler, formMetrics := setupMetrics()

	var ses notify.SESAPI
	if cfg.EmailProvider == appconfig.EmailProviderSES {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		ses = mainconfig.NewSESClient(awsCfg, cfg)
	}
	sender, provider, err := bootstrap.BuildEmailSender(cfg, ses, logger)
	if err != nil {
		return err
	}
	notifier := notify.NewNotifier(sender, notify.NotifierConfig{
		Provider:  provider,
		TeamInbox: cfg.SupportEmail,
		B2BInbox:  cfg.B2BInbox,
	}, formMetrics, logger)

	repo, subscribers := bootstrap.BuildStores(pool, sqlDB, logger)
	svc := submissions.NewService(submissions.Deps{
		Repo:       repo,
		Newsletter: subscribers,
		Limiter:    bootstrap.BuildVelocityLimiter(redisClient, cfg, logger),
		Notifier:   notifier,
		Metrics:    formMetrics,
		Logger:     logger,
	})

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	routerCfg := &router.Config{
		Logger:             logger,
		PlansHandler:       plans.NewHandler(catalog, logger),
		SubmissionsHandler: submissions.NewHandler(svc, logger, cfg.B2BEnabled),
		RateLimiter:        limiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       healthChecks(pool, sqlDB, redisClient),
	}
	if cfg.WizardEnabled {
		wizardHandler, err := wizard.NewHandler(nil, catalog, formMetrics, logger)
		if err != nil {
			return err
		}
		routerCfg.WizardHandler = wizardHandler
	}
	if cfg.PaymentEnabled {
		checkoutSvc, err := checkout.NewService(catalog, cfg.PublicBaseURL, logger)
		if err != nil {
			return err
		}
		routerCfg.CheckoutHandler = checkout.NewHandler(checkoutSvc, logger)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return serve(ctx, srv, logger)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func setupMetrics() (http.Handler, *metrics.FormMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewFormMetrics(reg)
}

// healthChecks probes only the backends that are configured.
func healthChecks(pool *pgxpool.Pool, db *sql.DB, redisClient *redis.Client) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if db != nil {
		checks["newsletter_db"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
