package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/pkg/pseudonym"
)

// Store is the subset of Cache the snapshot decorator needs.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SnapshotConfig configures SnapshotCache.
type SnapshotConfig struct {
	// TTL of every cached entry.
	TTL time.Duration

	// Enabled decides per student whether the cache is used. Nil means always.
	Enabled func(userID string) bool
}

// SnapshotCache decorates a RecordsProvider with a short-lived Redis cache.
// Concurrent misses for the same key share one upstream call. Cache failures
// are logged and never surface to the caller; upstream errors pass through
// unchanged and are not cached.
type SnapshotCache struct {
	next   academic.RecordsProvider
	store  Store
	cfg    SnapshotConfig
	group  singleflight.Group
	logger *slog.Logger
}

var _ academic.RecordsProvider = (*SnapshotCache)(nil)

// NewSnapshotCache wraps next.
func NewSnapshotCache(next academic.RecordsProvider, store Store, cfg SnapshotConfig, logger *slog.Logger) *SnapshotCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSnapshotTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotCache{
		next:   next,
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "snapshot_cache"),
	}
}

// FetchContext implements academic.RecordsProvider.
func (c *SnapshotCache) FetchContext(ctx context.Context, userID string) (*academic.Snapshot, error) {
	if !c.enabled(userID) {
		return c.next.FetchContext(ctx, userID)
	}
	return load(ctx, c, userID, SnapshotKey(userID), c.next.FetchContext,
		func(s *academic.Snapshot) bool { return s != nil })
}

// FetchDeadlines implements academic.RecordsProvider.
func (c *SnapshotCache) FetchDeadlines(ctx context.Context, userID string) ([]academic.Deadline, error) {
	if !c.enabled(userID) {
		return c.next.FetchDeadlines(ctx, userID)
	}
	return load(ctx, c, userID, DeadlinesKey(userID), c.next.FetchDeadlines, nil)
}

// FetchUserName implements academic.RecordsProvider. Empty names are not cached.
func (c *SnapshotCache) FetchUserName(ctx context.Context, userID string) (string, error) {
	if !c.enabled(userID) {
		return c.next.FetchUserName(ctx, userID)
	}
	return load(ctx, c, userID, UserNameKey(userID), c.next.FetchUserName,
		func(name string) bool { return name != "" })
}

// Invalidate drops every cached entry for a student.
func (c *SnapshotCache) Invalidate(ctx context.Context, userID string) error {
	return c.store.Delete(ctx, SnapshotKey(userID), DeadlinesKey(userID), UserNameKey(userID))
}

func (c *SnapshotCache) enabled(userID string) bool {
	return c.cfg.Enabled == nil || c.cfg.Enabled(userID)
}

// load reads key from the store or fetches it upstream once per key at a time.
// keep reports whether a fetched value may be cached; nil keeps everything.
func load[T any](
	ctx context.Context,
	c *SnapshotCache,
	userID, key string,
	fetch func(context.Context, string) (T, error),
	keep func(T) bool,
) (T, error) {
	var cached T
	err := c.store.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		value, err := fetch(ctx, userID)
		if err != nil {
			return value, err
		}
		if keep == nil || keep(value) {
			if err := c.store.Set(ctx, key, value, c.cfg.TTL); err != nil {
				c.logger.Warn("cache write failed", "key", key, "error", err)
			}
		}
		return value, nil
	})
	if shared {
		c.logger.Debug("upstream fetch shared", "user", pseudonym.UserID(userID), "key", key)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
