// Package config gathers icds settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/icodes/icds/internal/constants"
	"github.com/icodes/icds/internal/db"
)

type Config struct {
	Debug bool

	DatabaseURL string

	Provider constants.Provider
	Model    string

	// API keys
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	OpenRouterAPIKey string
	GeminiAPIKey     string

	OllamaBaseURL string

	// Analysis cache; an empty URL disables it.
	CacheURL string
	CacheTTL time.Duration

	// IgnoreFiles lists file names whose diffs are left out of dossiers.
	// Nil means the built-in list.
	IgnoreFiles []string
	// ContextWindows overrides the built-in per-model table.
	ContextWindows map[string]int

	// ConfigFile is the YAML file that was read, if any.
	ConfigFile string
}

// fileConfig is the YAML layout. Environment variables win over it.
type fileConfig struct {
	DatabaseURL    string         `yaml:"database_url"`
	Provider       string         `yaml:"provider"`
	Model          string         `yaml:"model"`
	OllamaBaseURL  string         `yaml:"ollama_base_url"`
	CacheURL       string         `yaml:"cache_url"`
	CacheTTL       string         `yaml:"cache_ttl"`
	IgnoreFiles    []string       `yaml:"ignore_files"`
	ContextWindows map[string]int `yaml:"context_windows"`
}

// Load reads .env from the working directory when present and then builds
// the config from the process environment. A non-empty path takes the place
// of ICDS_CONFIG.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	getenv := os.Getenv
	if path != "" {
		getenv = func(key string) string {
			if key == "ICDS_CONFIG" {
				return path
			}
			return os.Getenv(key)
		}
	}
	return LoadFrom(getenv)
}

// LoadFrom builds the config using getenv to read variables.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := envReader(getenv)
	cfg := &Config{
		DatabaseURL: db.DefaultDSN,
		Provider:    constants.ProviderOpenAI,
		CacheTTL:    7 * 24 * time.Hour,
	}

	if path := env.str("ICDS_CONFIG", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	var err error
	cfg.Debug, err = env.boolean("ICDS_DEBUG", false)
	if err != nil {
		return nil, err
	}
	if !cfg.Debug {
		if cfg.Debug, err = env.boolean("DEBUG", false); err != nil {
			return nil, err
		}
	}

	cfg.DatabaseURL = env.str("DATABASE_URL", cfg.DatabaseURL)
	cfg.Provider = constants.Provider(strings.ToLower(env.str("LLM_PROVIDER", string(cfg.Provider))))
	cfg.Model = env.str("DEFAULT_MODEL", cfg.Model)
	if cfg.Model == "" {
		cfg.Model = constants.GetDefaultModel(cfg.Provider)
	}

	cfg.OpenAIAPIKey = env.str("OPENAI_API_KEY", "")
	cfg.AnthropicAPIKey = env.str("ANTHROPIC_API_KEY", "")
	cfg.OpenRouterAPIKey = env.str("OPENROUTER_API_KEY", "")
	cfg.GeminiAPIKey = env.str("GEMINI_API_KEY", "")
	cfg.OllamaBaseURL = env.str("OLLAMA_BASE_URL", cfg.OllamaBaseURL)

	cfg.CacheURL = env.str("ICDS_CACHE_URL", cfg.CacheURL)
	if cfg.CacheTTL, err = env.duration("ICDS_CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if v := env.str("ICDS_IGNORE_FILES", ""); v != "" {
		cfg.IgnoreFiles = splitList(v)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.ConfigFile = path
	if fc.DatabaseURL != "" {
		c.DatabaseURL = fc.DatabaseURL
	}
	if fc.Provider != "" {
		c.Provider = constants.Provider(strings.ToLower(fc.Provider))
	}
	if fc.Model != "" {
		c.Model = fc.Model
	}
	if fc.OllamaBaseURL != "" {
		c.OllamaBaseURL = fc.OllamaBaseURL
	}
	if fc.CacheURL != "" {
		c.CacheURL = fc.CacheURL
	}
	if fc.CacheTTL != "" {
		ttl, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl in %s: %w", path, err)
		}
		c.CacheTTL = ttl
	}
	if fc.IgnoreFiles != nil {
		c.IgnoreFiles = fc.IgnoreFiles
	}
	if len(fc.ContextWindows) > 0 {
		c.ContextWindows = fc.ContextWindows
	}
	return nil
}

// APIKey returns the key configured for a provider.
func (c *Config) APIKey(provider constants.Provider) string {
	switch provider {
	case constants.ProviderOpenAI:
		return c.OpenAIAPIKey
	case constants.ProviderAnthropic:
		return c.AnthropicAPIKey
	case constants.ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case constants.ProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// BaseURL returns a configured endpoint override for the provider, or "".
func (c *Config) BaseURL(provider constants.Provider) string {
	if provider == constants.ProviderOllama {
		return c.OllamaBaseURL
	}
	return ""
}

// ContextWindow returns the context window for the configured model.
func (c *Config) ContextWindow() int {
	return constants.ContextWindowWith(c.ContextWindows, c.Model)
}

// Validate reports settings that would make every model call fail.
func (c *Config) Validate() error {
	info := constants.GetProviderInfo(c.Provider)
	if info == nil {
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}
	if info.NeedsAPIKey && c.APIKey(c.Provider) == "" {
		return fmt.Errorf("%s is required when LLM_PROVIDER=%s", info.EnvKey, c.Provider)
	}
	if c.Model == "" {
		return errors.New("DEFAULT_MODEL is empty")
	}
	if c.CacheTTL < 0 {
		return errors.New("ICDS_CACHE_TTL must not be negative")
	}
	return nil
}

type envReader func(string) string

func (e envReader) str(key, fallback string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return fallback
}

func (e envReader) boolean(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func (e envReader) duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
