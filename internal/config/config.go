// Package config loads and validates the trainsight configuration from an
// optional YAML file, TRAINSIGHT_* environment variables and defaults, and
// hands the result to the rest of the program as an explicit value. No other
// package reads ambient process state.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/avelasco/trainsight/internal/cache"
	"github.com/avelasco/trainsight/internal/core"
)

// Garmin configures the vendor API client.
type Garmin struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// LLM configures the analysis provider.
type LLM struct {
	Provider    string  `mapstructure:"provider"` // anthropic, openai, googleai
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// Cache configures the local TTL cache.
type Cache struct {
	Enabled        bool   `mapstructure:"enabled"`
	Dir            string `mapstructure:"dir"`
	TTLHours       int    `mapstructure:"ttl_hours"`
	ExtendedFactor int    `mapstructure:"extended_factor"`
	MaxSizeMB      int64  `mapstructure:"max_size_mb"`
	BusyTimeoutSec int    `mapstructure:"busy_timeout_sec"`
}

// Analysis configures the analysis run itself.
type Analysis struct {
	Days             int    `mapstructure:"days"`
	OutputDir        string `mapstructure:"output_dir"`
	TrainingPlanPath string `mapstructure:"training_plan"`
}

// Config is the root configuration object.
type Config struct {
	Garmin   Garmin   `mapstructure:"garmin"`
	LLM      LLM      `mapstructure:"llm"`
	Cache    Cache    `mapstructure:"cache"`
	Analysis Analysis `mapstructure:"analysis"`
	LogLevel string   `mapstructure:"log_level"`
}

// Default model per provider, used when llm.model is left unset.
var defaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-20250514",
	"openai":    "gpt-4o",
	"googleai":  "gemini-2.0-flash-exp",
}

// Provider-specific API key environment variables, consulted when
// llm.api_key is unset. Matches the conventions of the provider SDKs.
var providerKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"googleai":  "GOOGLE_API_KEY",
}

// Load reads configuration from path (optional; empty means env and
// defaults only).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Empty defaults register the keys so AutomaticEnv can populate them
	// through Unmarshal.
	v.SetDefault("garmin.token", "")
	v.SetDefault("garmin.base_url", "https://connectapi.garmin.com")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.max_tokens", 3000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", core.DefaultCacheDir())
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.extended_factor", core.DefaultExtendedFactor)
	v.SetDefault("cache.max_size_mb", 64)
	v.SetDefault("cache.busy_timeout_sec", 5)
	v.SetDefault("analysis.days", core.DefaultAnalysisDays)
	v.SetDefault("analysis.output_dir", core.DefaultOutputDir)
	v.SetDefault("analysis.training_plan", "")
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	cfg.ApplyProviderDefaults()
	return cfg, nil
}

// ApplyProviderDefaults fills in the provider's default model and API key
// environment fallback. Call it again after overriding llm.provider.
func (c *Config) ApplyProviderDefaults() {
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModels[c.LLM.Provider]
	}
	if c.LLM.APIKey == "" {
		if env := providerKeyEnv[c.LLM.Provider]; env != "" {
			c.LLM.APIKey = os.Getenv(env)
		}
	}
}

// Validate returns every configuration problem at once, so the operator can
// fix them in a single pass.
func (c *Config) Validate() error {
	var problems []string

	if c.Garmin.Token == "" {
		problems = append(problems, "garmin.token is not set (TRAINSIGHT_GARMIN_TOKEN)")
	}
	if _, ok := defaultModels[c.LLM.Provider]; !ok {
		problems = append(problems, "llm.provider must be one of anthropic, openai, googleai")
	} else if c.LLM.APIKey == "" {
		problems = append(problems, c.LLM.Provider+" API key is not set")
	}
	if c.Analysis.Days <= 0 {
		problems = append(problems, "analysis.days must be positive")
	}
	if c.Cache.TTLHours < 0 {
		problems = append(problems, "cache.ttl_hours must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}

// CacheConfig translates the cache section into the cache package's config.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Enabled: c.Cache.Enabled,
		Dir:     c.Cache.Dir,
		TTL: cache.TTLPolicy{
			Base:           time.Duration(c.Cache.TTLHours) * time.Hour,
			ExtendedFactor: c.Cache.ExtendedFactor,
		},
		MaxBytes:    c.Cache.MaxSizeMB << 20,
		BusyTimeout: time.Duration(c.Cache.BusyTimeoutSec) * time.Second,
	}
}
