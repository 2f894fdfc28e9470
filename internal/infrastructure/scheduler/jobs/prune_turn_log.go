// Package jobs contains the worker's scheduled jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE TURN LOG JOB
// ══════════════════════════════════════════════════════════════════════════════

// TurnPruner deletes turns older than a cutoff.
type TurnPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneTurnLogConfig configures PruneTurnLogJob.
type PruneTurnLogConfig struct {
	// Retention is how long turns are kept.
	Retention time.Duration

	// Timeout is the maximum duration of one run.
	Timeout time.Duration
}

// DefaultPruneTurnLogConfig keeps thirty days of turns.
func DefaultPruneTurnLogConfig() PruneTurnLogConfig {
	return PruneTurnLogConfig{
		Retention: 30 * 24 * time.Hour,
		Timeout:   2 * time.Minute,
	}
}

// PruneTurnStats describes the last run.
type PruneTurnStats struct {
	StartedAt time.Time
	Cutoff    time.Time
	Deleted   int64
	Duration  time.Duration
}

// PruneTurnLogJob removes conversation turns past the retention horizon.
type PruneTurnLogJob struct {
	pruner TurnPruner
	config PruneTurnLogConfig
	logger *slog.Logger
	now    func() time.Time

	lastRunStats atomic.Pointer[PruneTurnStats]
}

// NewPruneTurnLogJob creates the job.
func NewPruneTurnLogJob(pruner TurnPruner, config PruneTurnLogConfig, logger *slog.Logger) *PruneTurnLogJob {
	def := DefaultPruneTurnLogConfig()
	if config.Retention <= 0 {
		config.Retention = def.Retention
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneTurnLogJob{
		pruner: pruner,
		config: config,
		logger: logger.With("job", "prune-turn-log"),
		now:    time.Now,
	}
}

// Name implements scheduler.Job.
func (j *PruneTurnLogJob) Name() string { return "prune-turn-log" }

// Description implements scheduler.Job.
func (j *PruneTurnLogJob) Description() string {
	return fmt.Sprintf("delete conversation turns older than %s", j.config.Retention)
}

// Run implements scheduler.Job.
func (j *PruneTurnLogJob) Run(ctx context.Context) error {
	if j.pruner == nil {
		return errors.New("prune-turn-log: no turn store configured")
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	started := j.now()
	cutoff := started.Add(-j.config.Retention)

	deleted, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune-turn-log: %w", err)
	}

	stats := &PruneTurnStats{
		StartedAt: started,
		Cutoff:    cutoff,
		Deleted:   deleted,
		Duration:  j.now().Sub(started),
	}
	j.lastRunStats.Store(stats)

	j.logger.Info("turn log pruned", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}

// LastRunStats returns the stats of the last successful run, or nil.
func (j *PruneTurnLogJob) LastRunStats() *PruneTurnStats {
	return j.lastRunStats.Load()
}
