package config_test

import (
	"os"
	"testing"

	"interactions-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadRequiresSupabaseCredentials(t *testing.T) {
	clearEnv(t, "SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t, "SERVER_ADDRESS", "MAX_ITEMS", "UPSTREAM_CONCURRENCY",
		"PAIR_CONCURRENCY", "DEBUG", "CACHE_MEMORY_LAYER_ENABLED",
		"RXNORM_BASE_URL", "SUPPLEMENT_API_KEY", "LITERATURE_API_KEY")
	os.Setenv("SUPABASE_URL", "https://example.supabase.co")
	os.Setenv("SUPABASE_SERVICE_ROLE_KEY", "test-key")
	t.Cleanup(func() {
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("SUPABASE_SERVICE_ROLE_KEY")
	})

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, 10, cfg.MaxItems)
	assert.Equal(t, 6, cfg.UpstreamConcurrency)
	assert.Equal(t, 3, cfg.PairConcurrency)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "https://rxnav.nlm.nih.gov/REST", cfg.RxNormBaseURL)
	assert.False(t, cfg.HasSupplementCredential())
	assert.False(t, cfg.HasLiteratureCredential())
}

func TestLoadHonorsOverrides(t *testing.T) {
	os.Setenv("SUPABASE_URL", "https://example.supabase.co")
	os.Setenv("SUPABASE_SERVICE_ROLE_KEY", "test-key")
	os.Setenv("MAX_ITEMS", "5")
	os.Setenv("DEBUG", "true")
	os.Setenv("SUPPLEMENT_API_KEY", "sk-test")
	os.Setenv("RXNORM_BASE_URL", "https://rxnav.example.test/REST")
	t.Cleanup(func() {
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("SUPABASE_SERVICE_ROLE_KEY")
		os.Unsetenv("MAX_ITEMS")
		os.Unsetenv("DEBUG")
		os.Unsetenv("SUPPLEMENT_API_KEY")
		os.Unsetenv("RXNORM_BASE_URL")
	})

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxItems)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.HasSupplementCredential())
	assert.Equal(t, "https://rxnav.example.test/REST", cfg.RxNormBaseURL)
}

func TestLoadIgnoresMalformedIntAndBool(t *testing.T) {
	os.Setenv("SUPABASE_URL", "https://example.supabase.co")
	os.Setenv("SUPABASE_SERVICE_ROLE_KEY", "test-key")
	os.Setenv("MAX_ITEMS", "not-a-number")
	os.Setenv("DEBUG", "not-a-bool")
	t.Cleanup(func() {
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("SUPABASE_SERVICE_ROLE_KEY")
		os.Unsetenv("MAX_ITEMS")
		os.Unsetenv("DEBUG")
	})

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxItems)
	assert.False(t, cfg.Debug)
}
