package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/api"
	"github.com/sigma-teacher/tutor/internal/app"
	"github.com/sigma-teacher/tutor/internal/curriculum"
	"github.com/sigma-teacher/tutor/internal/lecture"
	"github.com/sigma-teacher/tutor/internal/platform/cache"
	"github.com/sigma-teacher/tutor/internal/platform/config"
	"github.com/sigma-teacher/tutor/internal/platform/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(app.NewLogger(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	orc, router, err := app.NewOracle(ctx, cfg)
	if err != nil {
		return err
	}

	engineCfg := app.EngineConfig(cfg.Tutor, orc)
	var lectures lecture.Store = lecture.NewMemoryStore()
	var checks []func(context.Context) error

	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		sessions, err := agent.NewPostgresStore(db.Pool)
		if err != nil {
			return err
		}
		pgLectures, err := lecture.NewPostgresStore(db.Pool)
		if err != nil {
			return err
		}
		engineCfg.Store = sessions
		engineCfg.Events = agent.NewPostgresEventLogger(db.Pool)
		lectures = pgLectures
		checks = append(checks, db.HealthCheck)
		slog.Info("using postgres storage")
	} else {
		slog.Warn("ITS_DATABASE_URL not set, sessions are kept in memory")
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer func() { _ = c.Close() }()

		engineCfg.Locker = c.Locker(cfg.Tutor.LockTTL)
		engineCfg.Domains = c.Domains(cfg.Tutor.DomainCacheTTL)
		checks = append(checks, c.HealthCheck)
		slog.Info("using redis for session locks and domain cache")
	}

	var curricula *curriculum.Loader
	if cfg.Tutor.CurriculumPath != "" {
		curricula, err = curriculum.NewLoader(cfg.Tutor.CurriculumPath)
		if err != nil {
			return err
		}
	}

	handler := api.New(api.Config{
		Engine:         agent.NewEngine(engineCfg),
		Lectures:       lectures,
		Curricula:      curricula,
		Ready:          readiness(checks),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // domain builds over uploaded documents are slow
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "providers", router.Providers())
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
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// readiness runs every dependency check in order.
func readiness(checks []func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
