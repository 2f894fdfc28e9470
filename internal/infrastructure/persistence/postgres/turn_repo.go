package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ptit-hub/study-assistant/internal/application/dialogue"
)

// TurnStore is what the turn log needs from a Connection.
type TurnStore interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) error
}

// TurnLogConfig tunes the asynchronous writer.
type TurnLogConfig struct {
	// Buffer is how many turns may wait for the writer before new ones are dropped.
	Buffer int

	// BatchSize is the largest number of turns written in one round trip.
	BatchSize int

	// FlushInterval bounds how long a partial batch waits.
	FlushInterval time.Duration

	// WriteTimeout applies to each batch.
	WriteTimeout time.Duration
}

// DefaultTurnLogConfig returns sensible defaults.
func DefaultTurnLogConfig() TurnLogConfig {
	return TurnLogConfig{
		Buffer:        256,
		BatchSize:     32,
		FlushInterval: 2 * time.Second,
		WriteTimeout:  5 * time.Second,
	}
}

const insertTurnSQL = `
	INSERT INTO conversation_turns
		(id, user_hash, text, intent, source, rule, confidence, latency_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING
`

// TurnRepository appends turns to conversation_turns from a single background
// writer. Record never blocks: when the buffer is full the turn is dropped.
type TurnRepository struct {
	store  TurnStore
	cfg    TurnLogConfig
	logger *slog.Logger

	queue   chan dialogue.Turn
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

var _ dialogue.TurnRecorder = (*TurnRepository)(nil)

// NewTurnRepository starts the writer goroutine. Call Close to flush and stop it.
func NewTurnRepository(store TurnStore, cfg TurnLogConfig, logger *slog.Logger) *TurnRepository {
	def := DefaultTurnLogConfig()
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &TurnRepository{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "turn_log"),
		queue:  make(chan dialogue.Turn, cfg.Buffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record implements dialogue.TurnRecorder.
func (r *TurnRepository) Record(_ context.Context, turn dialogue.Turn) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	select {
	case r.queue <- turn:
	default:
		n := r.dropped.Add(1)
		r.logger.Warn("turn log buffer full, dropping turn", "turn_id", turn.ID, "dropped_total", n)
	}
}

// Dropped returns how many turns were discarded because the buffer was full.
func (r *TurnRepository) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting turns and waits for the queued ones to be written.
func (r *TurnRepository) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}

// Prune deletes turns created before cutoff and returns how many were removed.
func (r *TurnRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.store.Exec(ctx, `DELETE FROM conversation_turns WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune turns: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TurnRepository) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	pending := make([]dialogue.Turn, 0, r.cfg.BatchSize)
	for {
		select {
		case turn, ok := <-r.queue:
			if !ok {
				r.flush(pending)
				return
			}
			pending = append(pending, turn)
			if len(pending) >= r.cfg.BatchSize {
				r.flush(pending)
				pending = pending[:0]
			}
		case <-ticker.C:
			r.flush(pending)
			pending = pending[:0]
		}
	}
}

func (r *TurnRepository) flush(turns []dialogue.Turn) {
	if len(turns) == 0 {
		return
	}

	batch := &pgx.Batch{}
	for _, t := range turns {
		batch.Queue(insertTurnSQL,
			t.ID,
			t.UserHash,
			t.Text,
			string(t.Intent),
			string(t.Source),
			t.Rule,
			t.Confidence,
			t.Latency.Milliseconds(),
			t.At,
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	if err := r.store.SendBatch(ctx, batch); err != nil {
		r.logger.Warn("turn log write failed", "turns", len(turns), "error", err)
		return
	}
	r.logger.Debug("turns written", "turns", len(turns))
}
