package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// Database
	DatabaseURL  string
	StoreTimeout time.Duration

	// Locale
	Location       *time.Location
	CategoriesFile string

	// Primary LLM (OpenAI-compatible)
	PrimaryLLMAPIKey      string
	PrimaryLLMBaseURL     string
	PrimaryLLMModel       string
	PrimaryLLMMinInterval time.Duration

	// Secondary LLM
	AnthropicAPIKey string
	AnthropicModel  string

	LLMTimeout     time.Duration
	LLMMaxAttempts int
	LLMBackoffStep time.Duration

	// Reminders
	ReminderInterval    time.Duration
	ReminderMaxAttempts int

	SessionTTL time.Duration

	// Web Server
	WebBind   string
	JWTSecret string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:      os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		CategoriesFile:    os.Getenv("CATEGORIES_FILE"),
		PrimaryLLMAPIKey:  os.Getenv("PRIMARY_LLM_API_KEY"),
		PrimaryLLMBaseURL: os.Getenv("PRIMARY_LLM_BASE_URL"),
		PrimaryLLMModel:   getEnvDefault("PRIMARY_LLM_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    getEnvDefault("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		WebBind:           getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		JWTSecret:         getEnvDefault("JWT_SECRET", "dev-only-change-me"),
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	loc, err := time.LoadLocation(getEnvDefault("TIMEZONE", "America/Lima"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"STORE_TIMEOUT", "5s", &cfg.StoreTimeout},
		{"PRIMARY_LLM_MIN_INTERVAL", "4s", &cfg.PrimaryLLMMinInterval},
		{"LLM_TIMEOUT", "30s", &cfg.LLMTimeout},
		{"LLM_BACKOFF_STEP", "2s", &cfg.LLMBackoffStep},
		{"REMINDER_INTERVAL", "1m", &cfg.ReminderInterval},
		{"SESSION_TTL", "30m", &cfg.SessionTTL},
	}
	for _, d := range durations {
		if *d.dest, err = getEnvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.LLMMaxAttempts, err = getEnvInt("LLM_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.ReminderMaxAttempts, err = getEnvInt("REMINDER_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
