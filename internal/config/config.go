// Package config loads service settings from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/afumchris/edu-flashcard-app/internal/assembler"
	"github.com/afumchris/edu-flashcard-app/internal/extract"
	"github.com/afumchris/edu-flashcard-app/internal/structure"
)

// Language model providers.
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Port     string `yaml:"port"`
	APIKey   string `yaml:"api_key"`
	LogLevel string `yaml:"log_level"`

	// Language model
	LLMProvider       string        `yaml:"llm_provider"`
	AnthropicAPIKey   string        `yaml:"anthropic_api_key"`
	AnthropicModel    string        `yaml:"anthropic_model"`
	OpenAIAPIKey      string        `yaml:"openai_api_key"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	OpenAIModel       string        `yaml:"openai_model"`
	LLMTimeout        time.Duration `yaml:"llm_timeout"`
	LLMMaxTokens      int           `yaml:"llm_max_tokens"`
	PromptTokenBudget int           `yaml:"prompt_token_budget"`
	MaxConcurrentLLM  int           `yaml:"max_concurrent_llm"`
	BreakerFailures   int           `yaml:"breaker_failures"`
	BreakerCooldown   time.Duration `yaml:"breaker_cooldown"`

	// Worker pool
	WorkerCount  int           `yaml:"worker_count"`
	MaxQueueSize int           `yaml:"max_queue_size"`
	JobTTL       time.Duration `yaml:"job_ttl"`

	// Uploads
	MaxUploadBytes       int64    `yaml:"max_upload_bytes"`
	PDFFallbackPdftotext bool     `yaml:"pdftotext_fallback"`
	RateLimitRPS         float64  `yaml:"rate_limit_rps"`
	RateLimitBurst       int      `yaml:"rate_limit_burst"`
	CORSOrigins          []string `yaml:"cors_origins"`

	// Heuristic flashcards
	SegmentMode     string `yaml:"segment_mode"`
	CardsPerSection int    `yaml:"cards_per_section"`
	MinCardScore    int    `yaml:"min_card_score"`
	DedupWindow     int    `yaml:"dedup_window"`
	MinSectionChars int    `yaml:"min_section_chars"`

	// Result cache; empty disables it.
	CacheDB string `yaml:"cache_db"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:     "8090",
		LogLevel: "info",

		AnthropicModel:    "claude-sonnet-4-5-20250929",
		OpenAIBaseURL:     "https://api.openai.com/v1",
		OpenAIModel:       "gpt-4o-mini",
		LLMTimeout:        120 * time.Second,
		LLMMaxTokens:      4096,
		PromptTokenBudget: 6000,
		MaxConcurrentLLM:  3,
		BreakerFailures:   5,
		BreakerCooldown:   60 * time.Second,

		WorkerCount:  4,
		MaxQueueSize: 100,
		JobTTL:       time.Hour,

		MaxUploadBytes: 10 << 20,
		RateLimitRPS:   2,
		RateLimitBurst: 5,
		CORSOrigins:    []string{"*"},

		SegmentMode:     string(structure.ModeHierarchy),
		CardsPerSection: 15,
		MinCardScore:    60,
		DedupWindow:     100,
		MinSectionChars: 300,
	}
}

// Load starts from Default, applies CONFIG_FILE when set, then the
// environment. It does not validate.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = detectProvider(cfg)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("API_KEY", c.APIKey)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)

	c.LLMProvider = strings.ToLower(envOr("LLM_PROVIDER", c.LLMProvider))
	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicModel = envOr("ANTHROPIC_MODEL", c.AnthropicModel)
	c.OpenAIAPIKey = envOr("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = envOr("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = envOr("OPENAI_MODEL", c.OpenAIModel)
	c.LLMTimeout = envDuration("LLM_TIMEOUT", c.LLMTimeout)
	c.LLMMaxTokens = envInt("LLM_MAX_TOKENS", c.LLMMaxTokens)
	c.PromptTokenBudget = envInt("PROMPT_TOKEN_BUDGET", c.PromptTokenBudget)
	c.MaxConcurrentLLM = envInt("MAX_CONCURRENT_LLM", c.MaxConcurrentLLM)
	c.BreakerFailures = envInt("BREAKER_FAILURES", c.BreakerFailures)
	c.BreakerCooldown = envDuration("BREAKER_COOLDOWN", c.BreakerCooldown)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)

	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.PDFFallbackPdftotext = envBool("PDFTOTEXT_FALLBACK", c.PDFFallbackPdftotext)
	c.RateLimitRPS = envFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = envInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.CORSOrigins = envList("CORS_ORIGINS", c.CORSOrigins)

	c.SegmentMode = strings.ToLower(envOr("SEGMENT_MODE", c.SegmentMode))
	c.CardsPerSection = envInt("CARDS_PER_SECTION", c.CardsPerSection)
	c.MinCardScore = envInt("MIN_CARD_SCORE", c.MinCardScore)
	c.DedupWindow = envInt("DEDUP_WINDOW", c.DedupWindow)
	c.MinSectionChars = envInt("MIN_SECTION_CHARS", c.MinSectionChars)

	c.CacheDB = envOr("CACHE_DB", c.CacheDB)
}

// detectProvider prefers Anthropic, then OpenAI, by which key is present.
func detectProvider(c Config) string {
	switch {
	case c.AnthropicAPIKey != "":
		return ProviderAnthropic
	case c.OpenAIAPIKey != "":
		return ProviderOpenAI
	default:
		return ProviderNone
	}
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderNone:
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderOpenAI:
		if c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_BASE_URL is required for provider %q", c.LLMProvider)
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be none, anthropic or openai, got %q", c.LLMProvider)
	}
	switch structure.Mode(c.SegmentMode) {
	case structure.ModeHierarchy, structure.ModeChapters:
	default:
		return fmt.Errorf("SEGMENT_MODE must be hierarchy or chapters, got %q", c.SegmentMode)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	positive := []struct {
		name string
		v    int64
	}{
		{"WORKER_COUNT", int64(c.WorkerCount)},
		{"MAX_QUEUE_SIZE", int64(c.MaxQueueSize)},
		{"MAX_UPLOAD_BYTES", c.MaxUploadBytes},
		{"MAX_CONCURRENT_LLM", int64(c.MaxConcurrentLLM)},
		{"PROMPT_TOKEN_BUDGET", int64(c.PromptTokenBudget)},
		{"BREAKER_FAILURES", int64(c.BreakerFailures)},
		{"CARDS_PER_SECTION", int64(c.CardsPerSection)},
		{"RATE_LIMIT_BURST", int64(c.RateLimitBurst)},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%s must be > 0", p.name)
		}
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be > 0")
	}
	if c.MinCardScore < 0 || c.MinCardScore > 100 {
		return fmt.Errorf("MIN_CARD_SCORE must be within 0-100, got %d", c.MinCardScore)
	}
	if c.JobTTL <= 0 || c.LLMTimeout <= 0 || c.BreakerCooldown <= 0 {
		return fmt.Errorf("JOB_TTL, LLM_TIMEOUT and BREAKER_COOLDOWN must be positive")
	}
	return nil
}

// StructureOptions builds the detector tunables.
func (c Config) StructureOptions() structure.Options {
	opts := structure.DefaultOptions()
	opts.Mode = structure.Mode(c.SegmentMode)
	opts.DedupWindow = c.DedupWindow
	opts.MinSectionChars = c.MinSectionChars
	return opts
}

// AssemblerOptions builds the per-section card limits.
func (c Config) AssemblerOptions() assembler.Options {
	return assembler.Options{CardsPerSection: c.CardsPerSection, MinScore: c.MinCardScore}
}

// ProviderConfig picks the key, model and endpoint of the active provider.
func (c Config) ProviderConfig() extract.ProviderConfig {
	pc := extract.ProviderConfig{
		Provider:  c.LLMProvider,
		Timeout:   c.LLMTimeout,
		MaxTokens: c.LLMMaxTokens,
	}
	switch c.LLMProvider {
	case ProviderAnthropic:
		pc.APIKey, pc.Model = c.AnthropicAPIKey, c.AnthropicModel
	case ProviderOpenAI:
		pc.APIKey, pc.Model, pc.BaseURL = c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIBaseURL
	}
	return pc
}

// SlogLevel returns the configured log level, info when unparseable.
func (c Config) SlogLevel() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
