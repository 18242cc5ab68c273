package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Addr               string
	DBPath             string
	StorageBackend     string
	LogLevel           string
	LogFormat          string
	MasteryInterval    int
	MasteryMinEase     int
	ReviewMaxRetries   int
	DueLimitMax        int
	LLMAPIURL          string
	LLMAPIKey          string
	LLMModel           string
	LLMTimeoutSeconds  int
	MaxUploadMB        int
	CORSAllowedOrigins []string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:flashdeck.db"),
		StorageBackend:     strings.ToLower(envOr("STORAGE_BACKEND", BackendSQLite)),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		LogFormat:          envOr("LOG_FORMAT", "text"),
		MasteryInterval:    envIntOr("MASTERY_INTERVAL_DAYS", 7),
		MasteryMinEase:     envIntOr("MASTERY_MIN_EASE", 250),
		ReviewMaxRetries:   envIntOr("REVIEW_MAX_RETRIES", 3),
		DueLimitMax:        envIntOr("DUE_LIMIT_MAX", 500),
		LLMAPIURL:          envOr("LLM_API_URL", "https://api.openai.com/v1/chat/completions"),
		LLMAPIKey:          os.Getenv("LLM_API_KEY"),
		LLMModel:           envOr("LLM_MODEL", "gpt-4o"),
		LLMTimeoutSeconds:  envIntOr("LLM_TIMEOUT_SECONDS", 60),
		MaxUploadMB:        envIntOr("MAX_UPLOAD_MB", 10),
		CORSAllowedOrigins: envListOr("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	switch c.StorageBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			problems = append(problems, "DB_PATH cannot be empty")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORAGE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendMemory, c.StorageBackend))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.MasteryInterval < 1 {
		problems = append(problems, fmt.Sprintf("MASTERY_INTERVAL_DAYS must be at least 1, got %d", c.MasteryInterval))
	}
	if c.MasteryMinEase < 130 || c.MasteryMinEase > 400 {
		problems = append(problems, fmt.Sprintf("MASTERY_MIN_EASE must be between 130 and 400, got %d", c.MasteryMinEase))
	}
	if c.ReviewMaxRetries < 1 || c.ReviewMaxRetries > 10 {
		problems = append(problems, fmt.Sprintf("REVIEW_MAX_RETRIES must be between 1 and 10, got %d", c.ReviewMaxRetries))
	}
	if c.DueLimitMax < 1 {
		problems = append(problems, fmt.Sprintf("DUE_LIMIT_MAX must be at least 1, got %d", c.DueLimitMax))
	}
	if c.LLMTimeoutSeconds < 1 {
		problems = append(problems, fmt.Sprintf("LLM_TIMEOUT_SECONDS must be at least 1, got %d", c.LLMTimeoutSeconds))
	}
	if c.MaxUploadMB < 1 {
		problems = append(problems, fmt.Sprintf("MAX_UPLOAD_MB must be at least 1, got %d", c.MaxUploadMB))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
