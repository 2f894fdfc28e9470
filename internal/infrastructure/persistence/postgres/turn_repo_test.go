package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptit-hub/study-assistant/internal/application/dialogue"
)

type fakeTurnStore struct {
	mu      sync.Mutex
	batches [][][]any
	execSQL []string
	execArg []any
	tag     pgconn.CommandTag
	err     error

	started chan struct{}
	release chan struct{}
}

func (f *fakeTurnStore) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execSQL = append(f.execSQL, sql)
	f.execArg = append(f.execArg, args...)
	return f.tag, f.err
}

func (f *fakeTurnStore) SendBatch(_ context.Context, b *pgx.Batch) error {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var rows [][]any
	for _, q := range b.QueuedQueries {
		rows = append(rows, q.Arguments)
	}
	f.batches = append(f.batches, rows)
	return f.err
}

func (f *fakeTurnStore) rows() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]any
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func sampleTurn(text string) dialogue.Turn {
	return dialogue.Turn{
		ID:         uuid.New(),
		UserHash:   "a1b2c3d4e5f60718",
		Text:       text,
		Intent:     dialogue.IntentGPA,
		Source:     dialogue.SourceClassifier,
		Confidence: 0.72,
		Latency:    42 * time.Millisecond,
		At:         time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestTurnRepository_WritesInBatches(t *testing.T) {
	store := &fakeTurnStore{}
	repo := NewTurnRepository(store, TurnLogConfig{BatchSize: 2, FlushInterval: time.Hour}, nil)

	repo.Record(context.Background(), sampleTurn("gpa cua toi"))
	repo.Record(context.Background(), sampleTurn("diem trung binh"))
	repo.Record(context.Background(), sampleTurn("hoc luc"))
	repo.Close()

	rows := store.rows()
	require.Len(t, rows, 3)
	assert.Len(t, store.batches, 2)

	first := rows[0]
	assert.Equal(t, "a1b2c3d4e5f60718", first[1])
	assert.Equal(t, "gpa cua toi", first[2])
	assert.Equal(t, "gpa", first[3])
	assert.Equal(t, "classifier", first[4])
	assert.Equal(t, 0.72, first[6])
	assert.Equal(t, int64(42), first[7])
	assert.Zero(t, repo.Dropped())
}

func TestTurnRepository_FlushesOnInterval(t *testing.T) {
	store := &fakeTurnStore{}
	repo := NewTurnRepository(store, TurnLogConfig{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, nil)
	defer repo.Close()

	repo.Record(context.Background(), sampleTurn("deadline"))
	assert.Eventually(t, func() bool { return len(store.rows()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestTurnRepository_DropsWhenBufferFull(t *testing.T) {
	store := &fakeTurnStore{started: make(chan struct{}, 1), release: make(chan struct{})}
	repo := NewTurnRepository(store, TurnLogConfig{Buffer: 1, BatchSize: 1, FlushInterval: time.Hour}, nil)

	repo.Record(context.Background(), sampleTurn("one"))
	<-store.started

	repo.Record(context.Background(), sampleTurn("two"))
	repo.Record(context.Background(), sampleTurn("three"))
	assert.Equal(t, int64(1), repo.Dropped())

	close(store.release)
	repo.Close()
	assert.Len(t, store.rows(), 2)
}

func TestTurnRepository_RecordAfterCloseIsIgnored(t *testing.T) {
	store := &fakeTurnStore{}
	repo := NewTurnRepository(store, TurnLogConfig{}, nil)
	repo.Close()
	repo.Close()

	assert.NotPanics(t, func() { repo.Record(context.Background(), sampleTurn("late")) })
	assert.Empty(t, store.rows())
}

func TestTurnRepository_WriteFailureIsSwallowed(t *testing.T) {
	store := &fakeTurnStore{err: errors.New("relation does not exist")}
	repo := NewTurnRepository(store, TurnLogConfig{BatchSize: 1}, nil)

	repo.Record(context.Background(), sampleTurn("gpa"))
	assert.NotPanics(t, repo.Close)
}

func TestTurnRepository_Prune(t *testing.T) {
	store := &fakeTurnStore{tag: pgconn.NewCommandTag("DELETE 4")}
	repo := NewTurnRepository(store, TurnLogConfig{}, nil)
	defer repo.Close()

	cutoff := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	n, err := repo.Prune(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Contains(t, store.execSQL[0], "DELETE FROM conversation_turns")
	assert.Equal(t, cutoff, store.execArg[0])

	store.err = errors.New("timeout")
	_, err = repo.Prune(context.Background(), cutoff)
	assert.ErrorContains(t, err, "failed to prune turns")
}

func TestMigrations_AreOrdered(t *testing.T) {
	migs := Migrations()
	require.NotEmpty(t, migs)
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
	}
	assert.Contains(t, migs[0].UpSQL, "conversation_turns")
}
