// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service reads at startup.
// Components receive the values they need explicitly; nothing reads the
// environment after Load returns.
type Config struct {
	Port        string
	DebugMode   bool
	LogFile     string
	FrontendURL string

	// script generation
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string

	// ScriptEndpoint delegates generation to a remote generate-script endpoint
	ScriptEndpoint string

	// asset binding
	SpeechEndpoint  string // remote synthesis endpoint; empty means in-process
	SpeechHost      string
	SpeechLang      string
	SpeechSlow      bool
	ImageBaseURL    string
	BindConcurrency int
	HTTPTimeout     time.Duration

	// synthesis cache
	CacheBackend string // memory or redis
	CacheTTL     time.Duration
	CacheSize    int
	RedisURL     string

	SessionTTL time.Duration
}

// Load reads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	// .env is optional
	godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DebugMode:   getEnvBool("DEBUG_MODE", true),
		LogFile:     getEnv("LOG_FILE", ""),
		FrontendURL: getEnv("FRONTEND_URL", "*"),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMAPIKey:   getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),

		ScriptEndpoint: getEnv("SCRIPT_ENDPOINT", ""),

		SpeechEndpoint:  getEnv("SPEECH_ENDPOINT", ""),
		SpeechHost:      getEnv("SPEECH_HOST", "https://translate.google.com"),
		SpeechLang:      getEnv("SPEECH_LANG", "pt"),
		SpeechSlow:      getEnvBool("SPEECH_SLOW", false),
		ImageBaseURL:    getEnv("IMAGE_BASE_URL", "https://image.pollinations.ai"),
		BindConcurrency: getEnvInt("BIND_CONCURRENCY", 0),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CacheTTL:     getEnvDuration("CACHE_TTL", time.Hour),
		CacheSize:    getEnvInt("CACHE_SIZE", 1000),
		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),

		SessionTTL: getEnvDuration("SESSION_TTL", 2*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.LLMAPIKey == "" && cfg.ScriptEndpoint == "" {
		// not fatal: the contract endpoints still serve audio, and a remote generator may be used
		log.Println("warning: no LLM API key set (LLM_API_KEY / OPENAI_API_KEY); script generation will fail")
	}

	return cfg, nil
}

// Validate rejects settings that cannot work
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q (memory or redis)", c.CacheBackend)
	}
	if c.BindConcurrency < 0 {
		return fmt.Errorf("BIND_CONCURRENCY must be >= 0, got %d", c.BindConcurrency)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// LLMSettings returns the provider configuration map understood by llm.Provider.Initialize
func (c *Config) LLMSettings() map[string]string {
	settings := map[string]string{
		"api_key": c.LLMAPIKey,
	}
	if c.LLMModel != "" {
		settings["default_model"] = c.LLMModel
	}
	if c.LLMBaseURL != "" {
		settings["base_url"] = c.LLMBaseURL
	}
	return settings
}

// getEnv returns the variable or defaultValue when unset
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool parses a boolean variable
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt parses an integer variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("warning: invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvDuration parses a Go duration string such as "30s"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("warning: invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
