// Package config loads runtime configuration from the environment, in the
// teacher's getEnv-with-default style.
package config

import (
	"os"
	"strconv"
	"time"
)

// CalcVersion is stamped on every pair cache entry; bumping it invalidates
// all previously-cached pair results.
const CalcVersion = "v1"

// Config holds every environment-derived setting the pipeline needs.
type Config struct {
	// ServerAddress is where cmd/server listens.
	ServerAddress string

	// SupabaseURL and SupabaseServiceRoleKey address the Postgres-backed
	// cache stores and usage log. Required.
	SupabaseURL            string
	SupabaseServiceRoleKey string

	// SupplementAPIKey, LiteratureAPIKey gate the two providers that
	// require credentials. Empty means the provider is disabled.
	SupplementAPIKey string
	LiteratureAPIKey string

	// Debug enables the debug.providerStatuses trace in responses.
	Debug bool

	// MemoryCacheLayerEnabled turns on the process-local read-through
	// cache decorator in front of the Supabase-backed stores.
	MemoryCacheLayerEnabled bool

	// PolicyHotReloadEnabled turns on the PolicyWatcher's filesystem watch
	// of the policy YAML file (label block-list, item/TTL tunables). Off
	// by default so production doesn't pay for an fsnotify watch it never
	// uses.
	PolicyHotReloadEnabled bool

	// MaxItems is read from MAX_ITEMS. No pipeline component consults it:
	// the per-request item bound is the constant normalize.MaxItems.
	MaxItems int

	// UpstreamConcurrency and PairConcurrency are the two limiter sizes.
	UpstreamConcurrency int
	PairConcurrency     int

	// NegativeEntryTTL is set to 24h by Load. No pipeline component
	// consults it: the age at which a negative item-lookup field is
	// refetched is the constant cache.NegativeEntryMaxAge.
	NegativeEntryTTL time.Duration

	// Provider base URLs. Each defaults to a real public upstream so the
	// pipeline runs against live data with no further configuration.
	RxNormBaseURL     string
	SupplementBaseURL string
	LabelBaseURL      string
	AdverseBaseURL    string
	LiteratureBaseURL string
	ExposureBaseURL   string
}

// Load reads configuration from the environment, applying the defaults
// named throughout the specification.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress:           getEnv("SERVER_ADDRESS", ":8080"),
		SupabaseURL:             os.Getenv("SUPABASE_URL"),
		SupabaseServiceRoleKey:  os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupplementAPIKey:        os.Getenv("SUPPLEMENT_API_KEY"),
		LiteratureAPIKey:        os.Getenv("LITERATURE_API_KEY"),
		Debug:                   getBool("DEBUG", false),
		MemoryCacheLayerEnabled: getBool("CACHE_MEMORY_LAYER_ENABLED", false),
		PolicyHotReloadEnabled:  getBool("POLICY_HOT_RELOAD_ENABLED", false),
		MaxItems:                getInt("MAX_ITEMS", 10),
		UpstreamConcurrency:     getInt("UPSTREAM_CONCURRENCY", 6),
		PairConcurrency:         getInt("PAIR_CONCURRENCY", 3),
		NegativeEntryTTL:        24 * time.Hour,

		RxNormBaseURL:     getEnv("RXNORM_BASE_URL", "https://rxnav.nlm.nih.gov/REST"),
		SupplementBaseURL: getEnv("SUPPLEMENT_BASE_URL", "https://api.nih.gov/ods/supplement-interactions"),
		LabelBaseURL:      getEnv("LABEL_BASE_URL", "https://api.fda.gov/drug/label.json"),
		AdverseBaseURL:    getEnv("ADVERSE_BASE_URL", "https://api.fda.gov/drug/event.json"),
		LiteratureBaseURL: getEnv("LITERATURE_BASE_URL", "https://api.openai.com/v1"),
		ExposureBaseURL:   getEnv("EXPOSURE_BASE_URL", "https://data.cms.gov/api/1"),
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseServiceRoleKey == "" {
		return nil, errMissingDB
	}

	return cfg, nil
}

// HasSupplementCredential reports whether the supplement_interactions
// provider has a configured API key.
func (c *Config) HasSupplementCredential() bool { return c.SupplementAPIKey != "" }

// HasLiteratureCredential reports whether the literature_ai provider has a
// configured API key.
func (c *Config) HasLiteratureCredential() bool { return c.LiteratureAPIKey != "" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

type configError string

func (e configError) Error() string { return string(e) }

var errMissingDB = configError("DATABASE_CONNECTION_REQUIRED: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")
