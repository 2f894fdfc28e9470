package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ptit-hub/study-assistant/config"
	"github.com/ptit-hub/study-assistant/internal/application/dialogue"
	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/external/llm"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/external/records"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/intent"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/persistence/postgres"
	"github.com/ptit-hub/study-assistant/internal/infrastructure/persistence/redis"
	"github.com/ptit-hub/study-assistant/internal/interface/http/handlers"
	"github.com/ptit-hub/study-assistant/pkg/retry"
)

// buildOptions selects which optional collaborators are wired.
type buildOptions struct {
	// snapshotPath serves records from a local YAML/JSON file instead of the
	// backend. The Redis cache is skipped in that mode.
	snapshotPath string

	noLLM   bool
	turnLog bool

	// waitForDeps retries Redis and Postgres while they boot. One-shot
	// commands leave it off and degrade immediately.
	waitForDeps bool
}

// components is the wired object graph. Optional parts are nil when their
// backing service is not configured or could not be reached.
type components struct {
	engine *dialogue.Engine

	records   *records.Client
	cache     *redis.Cache
	snapshots *redis.SnapshotCache
	db        *postgres.Connection
	turns     *postgres.TurnRepository
	qa        *llm.Client

	closers []func()
}

// close releases resources in reverse acquisition order.
func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts buildOptions) (*components, error) {
	comps := &components{}

	// ─────────────────────────────────────────────────────────────────────────
	// Records provider, optionally behind the snapshot cache
	// ─────────────────────────────────────────────────────────────────────────
	var provider academic.RecordsProvider
	if opts.snapshotPath != "" {
		fp, err := records.LoadFile(opts.snapshotPath)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		provider = fp
	} else {
		rc := records.DefaultClientConfig(cfg.Records.BaseURL)
		rc.Timeout = cfg.Records.Timeout
		rc.Logger = logger
		comps.records = records.NewClient(rc)
		provider = comps.records

		if cfg.Redis.Enabled() {
			cache, err := retry.DoWithData(ctx, func(context.Context) (*redis.Cache, error) {
				return redis.NewCache(redisConfig(cfg.Redis))
			}, startupRetry(logger, "redis", opts.waitForDeps, func(err error) bool {
				return errors.Is(err, redis.ErrCacheConnection)
			})...)
			if err != nil {
				logger.Warn("failed to connect to Redis, snapshot cache disabled", "error", err)
			} else {
				comps.cache = cache
				comps.closers = append(comps.closers, func() { _ = cache.Close() })
				comps.snapshots = redis.NewSnapshotCache(provider, cache, redis.SnapshotConfig{
					TTL: cfg.Redis.SnapshotTTL,
					Enabled: func(userID string) bool {
						return cfg.Features.IsEnabledFor(config.FeatureSnapshotCache, userID)
					},
				}, logger)
				provider = comps.snapshots
				logger.Info("snapshot cache enabled", "ttl", cfg.Redis.SnapshotTTL.String())
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Turn log
	// ─────────────────────────────────────────────────────────────────────────
	if opts.turnLog && cfg.Database.Enabled() {
		if err := comps.openTurnLog(ctx, cfg, logger, opts); err != nil {
			logger.Warn("turn log disabled", "error", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Classifier and general QA
	// ─────────────────────────────────────────────────────────────────────────
	classifier := intent.Open(cfg.Intent.ModelPath, cfg.Intent.MinConfidence, logger)

	if !opts.noLLM && cfg.LLM.Enabled() {
		lc := llm.DefaultClientConfig(cfg.LLM.Provider, cfg.LLM.APIKey())
		lc.Model = cfg.LLM.Model()
		lc.BaseURL = cfg.LLM.BaseURL()
		lc.Timeout = cfg.LLM.Timeout
		lc.RatePerSec = cfg.LLM.RatePerSec
		lc.Burst = cfg.LLM.Burst
		lc.Logger = logger
		comps.qa = llm.NewClient(lc)
	}

	deps := dialogue.Dependencies{
		Records:    provider,
		Classifier: classifier,
		Features:   cfg.Features,
		Logger:     logger,
		Location:   cfg.App.Location,
	}
	if comps.qa != nil {
		deps.QA = comps.qa
	}
	if comps.turns != nil {
		deps.Turns = comps.turns
	}
	comps.engine = dialogue.NewEngine(deps)

	logger.Info("assistant wired",
		"records", recordsMode(opts),
		"classifier", classifier.Loaded(),
		"llm", comps.qa != nil,
		"snapshot_cache", comps.snapshots != nil,
		"turn_log", comps.turns != nil,
	)
	return comps, nil
}

func (c *components) openTurnLog(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts buildOptions) error {
	pool := postgres.DefaultPoolConfig()
	if cfg.Database.MaxConns > 0 {
		pool.MaxConns = int32(cfg.Database.MaxConns)
	}

	conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL, pool)
	}, startupRetry(logger, "postgres", opts.waitForDeps, func(err error) bool {
		return !errors.Is(err, postgres.ErrInvalidURL)
	})...)
	if err != nil {
		return err
	}

	applied, err := postgres.NewMigrator(conn).Migrate(ctx)
	if err != nil {
		conn.Close()
		return err
	}
	logger.Info("database schema is up to date", "applied", applied)

	tl := postgres.DefaultTurnLogConfig()
	if cfg.TurnLog.Buffer > 0 {
		tl.Buffer = cfg.TurnLog.Buffer
	}

	c.db = conn
	c.turns = postgres.NewTurnRepository(conn, tl, logger)
	c.closers = append(c.closers, conn.Close, c.turns.Close)
	return nil
}

// healthChecks registers a readiness check per wired collaborator.
func (c *components) healthChecks(checker *handlers.CompositeHealthChecker) {
	if c.records != nil {
		checker.AddCheck("records", handlers.NewBreakerCheck(c.records))
	}
	if c.cache != nil {
		checker.AddCheck("redis", handlers.NewPingCheck(c.cache))
	}
	if c.db != nil {
		checker.AddCheck("postgres", handlers.NewPingCheck(c.db))
	}
}

// startupRetry returns one attempt unless wait is set, in which case
// retryable failures are retried with startup backoff.
func startupRetry(logger *slog.Logger, dep string, wait bool, retryIf func(error) bool) []retry.Option {
	if !wait {
		return []retry.Option{retry.WithMaxAttempts(1)}
	}
	return append(retry.StartupOptions(func(attempt int, err error, delay time.Duration) {
		logger.Warn("dependency not reachable yet", "dependency", dep, "attempt", attempt, "retry_in", delay.String(), "error", err)
	}), retry.WithRetryIf(retryIf))
}

func redisConfig(rc config.RedisConfig) redis.Config {
	out := redis.DefaultConfig()
	out.URL = rc.URL
	if rc.PoolSize > 0 {
		out.PoolSize = rc.PoolSize
	}
	if rc.DialTimeout > 0 {
		out.DialTimeout = rc.DialTimeout
	}
	return out
}

func recordsMode(opts buildOptions) string {
	if opts.snapshotPath != "" {
		return "file"
	}
	return "http"
}
