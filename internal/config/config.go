// Package config loads inboxtriage settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Defaults.
const (
	DefaultGeminiModel  = "gemini-2.0-flash"
	DefaultMaxResults   = 1
	DefaultTimezone     = "Asia/Kolkata"
	DefaultFallbackName = "Your Name"
	DefaultEnvFile      = ".env"
)

// Environment variable names.
const (
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvGeminiModel        = "GEMINI_MODEL"
	EnvGoogleAPIKey       = "GOOGLE_API_KEY"
	EnvSearchEngineID     = "SEARCH_ENGINE_ID"
	EnvSlackBotToken      = "SLACK_BOT_TOKEN"
	EnvSlackChannelID     = "SLACK_CHANNEL_ID"
	EnvGoogleClientID     = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvDBPath             = "INBOXTRIAGE_DB_PATH"
	EnvMaxResults         = "INBOXTRIAGE_MAX_RESULTS"
	EnvTimezone           = "INBOXTRIAGE_TIMEZONE"
	EnvFallbackName       = "INBOXTRIAGE_FALLBACK_NAME"
)

// Config holds everything a triage run needs from its environment.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	GoogleAPIKey   string
	SearchEngineID string

	SlackBotToken  string
	SlackChannelID string

	GoogleClientID     string
	GoogleClientSecret string

	DBPath       string
	MaxResults   int64
	Timezone     string
	FallbackName string
}

// SearchConfig holds Custom Search credentials.
type SearchConfig struct {
	APIKey   string
	EngineID string
}

// SlackConfig holds alerting credentials.
type SlackConfig struct {
	Token     string
	ChannelID string
}

// Load reads envFile into the process environment and then builds a Config
// from environment variables. Variables already set in the environment win
// over the file. An empty envFile means the default .env, which may be
// missing; an explicit file that cannot be read is an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		GeminiAPIKey:       os.Getenv(EnvGeminiAPIKey),
		GeminiModel:        getEnvOrDefault(EnvGeminiModel, DefaultGeminiModel),
		GoogleAPIKey:       os.Getenv(EnvGoogleAPIKey),
		SearchEngineID:     os.Getenv(EnvSearchEngineID),
		SlackBotToken:      os.Getenv(EnvSlackBotToken),
		SlackChannelID:     os.Getenv(EnvSlackChannelID),
		GoogleClientID:     os.Getenv(EnvGoogleClientID),
		GoogleClientSecret: os.Getenv(EnvGoogleClientSecret),
		DBPath:             getEnvOrDefault(EnvDBPath, DefaultDBPath()),
		MaxResults:         getEnvIntOrDefault(EnvMaxResults, DefaultMaxResults),
		Timezone:           getEnvOrDefault(EnvTimezone, DefaultTimezone),
		FallbackName:       getEnvOrDefault(EnvFallbackName, DefaultFallbackName),
	}
}

// Validate checks the settings a triage run cannot do without.
func (c *Config) Validate() error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvGeminiAPIKey))
	}
	if c.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("max results must be positive, got %d", c.MaxResults))
	}
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("database path is required"))
	}
	return errors.Join(errs...)
}

// Search returns the Custom Search credentials when both are set.
func (c *Config) Search() fn.Option[SearchConfig] {
	if c.GoogleAPIKey == "" || c.SearchEngineID == "" {
		return fn.None[SearchConfig]()
	}
	return fn.Some(SearchConfig{APIKey: c.GoogleAPIKey, EngineID: c.SearchEngineID})
}

// Slack returns the alerting credentials when both are set.
func (c *Config) Slack() fn.Option[SlackConfig] {
	if c.SlackBotToken == "" || c.SlackChannelID == "" {
		return fn.None[SlackConfig]()
	}
	return fn.Some(SlackConfig{Token: c.SlackBotToken, ChannelID: c.SlackChannelID})
}

// CacheDir returns the directory for the token and database,
// ~/.cache/inboxtriage.
func CacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "inboxtriage")
	}
	return filepath.Join(home, ".cache", "inboxtriage")
}

// DefaultDBPath is where emails are persisted unless configured otherwise.
func DefaultDBPath() string {
	return filepath.Join(CacheDir(), "emails.db")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
