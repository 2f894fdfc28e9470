package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_LimitsEachKeySeparately(t *testing.T) {
	rl := PerMinute[string](2, 0)
	now := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("a"), "one token refills every 30s")
}

func TestKeyed_EvictsIdleClients(t *testing.T) {
	rl := PerMinute[int64](10, 1)
	now := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow(1)
	rl.Allow(2)
	assert.Equal(t, 2, rl.Len())

	now = now.Add(DefaultIdle + time.Second)
	rl.Allow(3)
	assert.Equal(t, 1, rl.Len())
}

func TestKeyed_BurstOverride(t *testing.T) {
	rl := PerMinute[string](60, 1)
	now := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}
