package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/korjavin/fridgeflow/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	// Telegram Bot configuration
	BotToken string

	// OpenAI configuration. LLM plans are disabled when the key is empty.
	OpenAIAPIBase string
	OpenAIAPIKey  string
	OpenAIModel   string

	// Application configuration
	DataDir             string
	HTTPAddr            string
	TickInterval        time.Duration
	BehindDelaySec      float64
	BehindExtensionSec  float64
	DefaultTimeLimitMin int
	LogLevel            logger.Level
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Global.Warn("Error loading .env file: %v", err)
	}

	cfg := &Config{}

	// Required configurations
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	cfg.BotToken = botToken

	// Optional configurations with defaults
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIAPIBase = getEnvWithDefault("OPENAI_API_BASE", "https://api.openai.com/v1")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "./data")
	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	cfg.LogLevel = logger.ParseLevel(getEnvWithDefault("LOG_LEVEL", "info"))

	var err error
	if cfg.TickInterval, err = time.ParseDuration(getEnvWithDefault("TICK_INTERVAL", "1s")); err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive, got %v", cfg.TickInterval)
	}
	if cfg.BehindDelaySec, err = getFloatEnv("BEHIND_DELAY_SEC", 120); err != nil {
		return nil, err
	}
	if cfg.BehindExtensionSec, err = getFloatEnv("BEHIND_EXTENSION_SEC", 60); err != nil {
		return nil, err
	}
	limit, err := getFloatEnv("DEFAULT_TIME_LIMIT_MIN", 30)
	if err != nil {
		return nil, err
	}
	cfg.DefaultTimeLimitMin = int(limit)

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	logCfg.BotToken = redact(logCfg.BotToken)
	logCfg.OpenAIAPIKey = redact(logCfg.OpenAIAPIKey)
	logger.Global.Info("Configuration loaded: %+v", logCfg)
	return cfg, nil
}

func redact(secret string) string {
	if len(secret) > 8 {
		return secret[:8] + "...REDACTED..."
	}
	if secret != "" {
		return "REDACTED"
	}
	return ""
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getFloatEnv parses a finite, non-negative number from the environment
func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a finite number, got %s", key, value)
	}
	if f < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %g", key, f)
	}
	return f, nil
}
