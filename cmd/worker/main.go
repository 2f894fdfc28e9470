// Command worker runs the study assistant's background maintenance. Today
// that is pruning the conversation turn log past its retention window.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ptit-hub/study-assistant/config"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/persistence/postgres"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/scheduler"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/scheduler/jobs"
	"github.com/ptit-hub/study-assistant/pkg/logger"
	"github.com/ptit-hub/study-assistant/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Database.Enabled() {
		return errors.New("DATABASE_URL is required")
	}

	log := setupLogger(cfg)
	log.Info("starting study assistant worker",
		"env", cfg.App.Environment,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Database and schema
	// ─────────────────────────────────────────────────────────────────────────
	pool := postgres.DefaultPoolConfig()
	pool.MaxConns = 2

	dbConn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, pool)
		if errors.Is(err, postgres.ErrInvalidURL) {
			return nil, retry.Permanent(err)
		}
		return conn, err
	}, retry.StartupOptions(func(attempt int, err error, delay time.Duration) {
		log.Warn("database not reachable yet", "attempt", attempt, "retry_in", delay.String(), "error", err)
	})...)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	applied, err := postgres.NewMigrator(dbConn).Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date", "applied", applied)

	turns := postgres.NewTurnRepository(dbConn, postgres.DefaultTurnLogConfig(), log)
	defer turns.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	schedule, err := scheduler.ParseSchedule(cfg.TurnLog.PruneSchedule)
	if err != nil {
		return fmt.Errorf("TURN_LOG_PRUNE_SCHEDULE: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	pruneJob := jobs.NewPruneTurnLogJob(turns, jobs.PruneTurnLogConfig{
		Retention: cfg.TurnLog.Retention,
	}, log)
	if err := sched.Register(pruneJob, schedule); err != nil {
		return fmt.Errorf("failed to register %s: %w", pruneJob.Name(), err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("worker is running", "jobs", len(sched.Jobs()))

	if cfg.TurnLog.PruneOnStart {
		res, err := sched.RunNow(ctx, pruneJob.Name())
		if err != nil || !res.Success() {
			log.Warn("startup prune failed", "duration", res.Duration.String(), "error", err)
		} else if stats := pruneJob.LastRunStats(); stats != nil {
			log.Info("startup prune finished", "deleted", stats.Deleted, "cutoff", stats.Cutoff)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info("received shutdown signal")

	if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
		log.Warn("scheduler stop failed", "error", err)
	}
	for _, info := range sched.Jobs() {
		log.Info("job summary", "job", info.Name, "runs", info.RunCount, "failures", info.FailCount)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.App.LogLevel)
	opts.Format = logger.FormatFor(cfg.IsProduction())
	opts.AddSource = cfg.IsDevelopment()
	opts.Attrs = []any{"app", cfg.App.Name, "process", "worker"}

	log := logger.New(opts)
	slog.SetDefault(log)
	return log
}
