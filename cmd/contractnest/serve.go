package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/contractnest/contractnest/internal/app"
	"github.com/contractnest/contractnest/internal/auth"
	"github.com/contractnest/contractnest/internal/observability"
	"github.com/contractnest/contractnest/internal/platform/cache"
	"github.com/contractnest/contractnest/internal/platform/db"
	"github.com/contractnest/contractnest/internal/shared"
	"github.com/contractnest/contractnest/internal/taxrates"
	"github.com/contractnest/contractnest/internal/tenantprofile"
	"github.com/contractnest/contractnest/internal/theme"
	"github.com/contractnest/contractnest/jobs"
)

func runServe(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return err
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{ApplicationName: "contractnest"})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return err
	}
	defer pool.Close()

	// Without Redis the tax rate list is read straight from Postgres.
	var rateCache *taxrates.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, tax rate cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		rateCache = taxrates.NewCache(redisClient, cfg.TaxRateCacheTTL)
	}

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		logger.Error("create media dir", slog.Any("error", err), slog.String("dir", cfg.MediaDir))
		return err
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	enqueuer := jobs.NewEnqueuer(redisOpt)
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("enqueuer close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	taxService := taxrates.NewService(taxrates.ServiceDeps{
		Repo:     taxrates.NewRepository(pool),
		Cache:    rateCache,
		Audit:    auditLogger,
		Notifier: enqueuer,
		Metrics:  metrics,
		Logger:   logger,
	})
	logos := tenantprofile.NewLogoStore(cfg.MediaDir, cfg.MediaBaseURL, cfg.LogoMaxBytes)
	profileService := tenantprofile.NewService(tenantprofile.ServiceDeps{
		Repo:     tenantprofile.NewRepository(pool),
		Logos:    logos,
		Audit:    auditLogger,
		Notifier: enqueuer,
		Metrics:  metrics,
		Logger:   logger,
	})
	themes, err := theme.Builtin()
	if err != nil {
		logger.Error("load themes", slog.Any("error", err))
		return err
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Authenticator: auth.NewService(auth.NewRepository(pool)),
		TaxRates:      taxrates.NewHandler(logger, taxService, idempotencyStore),
		Profile:       tenantprofile.NewHandler(logger, profileService, logos.MaxBytes()),
		Themes:        theme.NewHandler(themes),
		Jobs:          jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("http server", slog.Any("error", err))
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
