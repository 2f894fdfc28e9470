package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTP.Addr())
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Records.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Records.Timeout)
	assert.Equal(t, 0.45, cfg.Intent.MinConfidence)
	assert.Equal(t, 30*time.Second, cfg.Redis.SnapshotTTL)
	assert.Equal(t, 720*time.Hour, cfg.TurnLog.Retention)
	assert.False(t, cfg.TurnLog.PruneOnStart)
	assert.False(t, cfg.LLM.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Telegram.PollTimeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("BACKEND_BASE", "http://records.internal:5000/")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("INTENT_MIN_CONFIDENCE", "0.6")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("SNAPSHOT_CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://records.internal:5000", cfg.Records.BaseURL)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, "g-key", cfg.LLM.APIKey())
	assert.Equal(t, "gemini-1.5-flash-latest", cfg.LLM.Model())
	assert.Empty(t, cfg.LLM.BaseURL())
	assert.Equal(t, 0.6, cfg.Intent.MinConfidence)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, time.Minute, cfg.Redis.SnapshotTTL)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("INTENT_MIN_CONFIDENCE", "1.5")
	t.Setenv("APP_ENV", "qa")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
	assert.Contains(t, err.Error(), "INTENT_MIN_CONFIDENCE")
	assert.Contains(t, err.Error(), "APP_ENV")
}

func TestLoad_Telegram(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_RATE_LIMIT_PER_MINUTE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Zero(t, cfg.Telegram.RateLimitPerMinute)

	t.Setenv("TELEGRAM_POLL_TIMEOUT", "2m")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_POLL_TIMEOUT")
}

func TestLLMConfig_OpenAI(t *testing.T) {
	l := LLMConfig{Provider: ProviderOpenAI, OpenAIModel: "gpt-4o-mini", OpenAIBaseURL: "https://proxy/v1"}
	assert.False(t, l.Enabled())
	l.OpenAIAPIKey = "sk-test"
	assert.True(t, l.Enabled())
	assert.Equal(t, "gpt-4o-mini", l.Model())
	assert.Equal(t, "https://proxy/v1", l.BaseURL())
}

func TestFeatureFlags_DefaultsAndEnv(t *testing.T) {
	ff := NewFeatureFlags()
	for _, name := range []string{FeatureLLMFallback, FeatureTurnLog, FeatureSnapshotCache} {
		assert.True(t, ff.IsEnabledFor(name, "u1"), name)
	}
	assert.False(t, ff.IsEnabledFor("unknown.flag", "u1"))
	assert.Len(t, ff.All(), 3)

	t.Setenv("FEATURE_LLM_FALLBACK", "false")
	t.Setenv("FEATURE_CACHE_SNAPSHOTS", "0")
	loaded := LoadFeatureFlags()
	assert.False(t, loaded.IsEnabledFor(FeatureLLMFallback, "u1"))
	assert.False(t, loaded.IsEnabledFor(FeatureSnapshotCache, "u1"))
	assert.True(t, loaded.IsEnabledFor(FeatureTurnLog, "u1"))
}

func TestFeatureFlags_RolloutIsStablePerUser(t *testing.T) {
	ff := NewFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureSnapshotCache, 50))

	enabled := 0
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("b21dccn%03d", i)
		first := ff.IsEnabledFor(FeatureSnapshotCache, id)
		assert.Equal(t, first, ff.IsEnabledFor(FeatureSnapshotCache, id))
		if first {
			enabled++
		}
	}
	assert.InDelta(t, 500, enabled, 150)

	require.NoError(t, ff.DisableFeature(FeatureSnapshotCache))
	assert.False(t, ff.IsEnabledFor(FeatureSnapshotCache, "u1"))

	assert.ErrorIs(t, ff.SetRolloutPercent("nope", 10), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureTurnLog, 101), ErrInvalidRolloutPercent)
}
