package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"biasaudit/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `validate:"required"`
	Database DatabaseConfig
	LLM      LLMConfig      `validate:"required"`
	Dataset  DatasetConfig  `validate:"required"`
	Log      LogConfig      `validate:"required"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// DatabaseConfig holds the optional audit archive connection. An empty URL
// disables the archive.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether an archive database is configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// LLMConfig holds settings for the analysis provider
type LLMConfig struct {
	Provider      string        `validate:"oneof=openai anthropic"`
	APIKey        string
	BaseURL       string        `validate:"omitempty,url"`
	Model         string        `validate:"required"`
	MaxTokens     int           `validate:"gt=0"`
	Timeout       time.Duration `validate:"gt=0"`
	RatePerMinute int           `validate:"gte=0"`
}

// DatasetConfig holds synthetic data and upload settings
type DatasetConfig struct {
	Size           int   `validate:"gt=0,ltefield=MaxSize"`
	MaxSize        int   `validate:"gt=0"`
	Seed           int64
	UploadMaxBytes int64 `validate:"gt=0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// Provider defaults. The openai provider speaks the OpenAI-compatible chat
// completions protocol and defaults to Groq's endpoint.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultOpenAIBaseURL  = "https://api.groq.com/openai/v1"
	defaultOpenAIModel    = "llama-3.3-70b-versatile"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   loadServerConfig(),
		Database: DatabaseConfig{URL: DatabaseURLFromEnv()},
		LLM:      loadLLMConfig(),
		Dataset:  loadDatasetConfig(),
		Log:      loadLogConfig(),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks struct constraints on a loaded configuration.
func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// DatabaseURLFromEnv returns DATABASE_URL, for tools that only need the
// archive connection.
func DatabaseURLFromEnv() string {
	return getEnvOrDefault("DATABASE_URL", "")
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadLLMConfig() LLMConfig {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI))

	apiKey := firstEnv("LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY")
	baseURL := getEnvOrDefault("LLM_BASE_URL", defaultOpenAIBaseURL)
	model := getEnvOrDefault("LLM_MODEL", defaultOpenAIModel)
	if provider == ProviderAnthropic {
		apiKey = firstEnv("LLM_API_KEY", "ANTHROPIC_API_KEY")
		baseURL = getEnvOrDefault("LLM_BASE_URL", "")
		model = getEnvOrDefault("LLM_MODEL", defaultAnthropicModel)
	}

	return LLMConfig{
		Provider:      provider,
		APIKey:        apiKey,
		BaseURL:       baseURL,
		Model:         model,
		MaxTokens:     getEnvIntOrDefault("LLM_MAX_TOKENS", 1000),
		Timeout:       getEnvDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		RatePerMinute: getEnvIntOrDefault("LLM_RATE_PER_MINUTE", 0),
	}
}

func loadDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Size:           getEnvIntOrDefault("DATASET_SIZE", 500),
		MaxSize:        getEnvIntOrDefault("DATASET_MAX_SIZE", 10000),
		Seed:           getEnvInt64OrDefault("DATASET_SEED", 0),
		UploadMaxBytes: getEnvInt64OrDefault("UPLOAD_MAX_BYTES", 10<<20),
	}
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
