package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort              = "8080"
	defaultSessionCookieName = "chat_session"
	defaultSessionTTLHours   = 168
	defaultFrontendOrigin    = "http://localhost:3001"
	defaultUploadDir         = "/tmp/aichat-uploads"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com"

	StoreBackendMemory = "memory"
	StoreBackendSQLite = "sqlite"
)

type Config struct {
	Port              string
	Environment       string
	FrontendOrigin    string
	AllowedOrigins    []string
	CookieSecure      bool
	SessionCookieName string
	SessionTTL        time.Duration

	GeminiAPIKey      string
	GeminiBaseURL     string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string

	StoreBackend      string
	DatabaseURL       string
	DatabaseAuthToken string

	GCSBucket       string
	GCSUploadPrefix string
	LocalUploadDir  string
	PublicBaseURL   string
}

func (c Config) ListenAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// HasAnyProviderKey reports whether at least one upstream model credential is
// configured. The server still starts without one; every chat request then
// fails with the unavailability error.
func (c Config) HasAnyProviderKey() bool {
	return c.GeminiAPIKey != "" || c.OpenRouterAPIKey != ""
}

func Load() (Config, error) {
	cfg := Config{
		Port:              envOrDefault("PORT", defaultPort),
		Environment:       envOrDefault("APP_ENV", "development"),
		FrontendOrigin:    envOrDefault("FRONTEND_ORIGIN", defaultFrontendOrigin),
		CookieSecure:      boolOrDefault("COOKIE_SECURE", false),
		SessionCookieName: envOrDefault("SESSION_COOKIE_NAME", defaultSessionCookieName),
		GeminiAPIKey:      firstNonEmptyEnv("GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"),
		GeminiBaseURL:     envOrDefault("GEMINI_BASE_URL", defaultGeminiBaseURL),
		OpenRouterAPIKey:  strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		OpenRouterBaseURL: envOrDefault("OPENROUTER_BASE_URL", defaultOpenRouterBaseURL),
		StoreBackend:      envOrDefault("HISTORY_BACKEND", StoreBackendMemory),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DatabaseAuthToken: strings.TrimSpace(os.Getenv("DATABASE_AUTH_TOKEN")),
		GCSBucket:         strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		GCSUploadPrefix:   envOrDefault("GCS_UPLOAD_PREFIX", "chat-uploads"),
		LocalUploadDir:    envOrDefault("LOCAL_UPLOAD_DIR", defaultUploadDir),
	}

	if cfg.Environment == "production" {
		cfg.CookieSecure = true
	}

	sessionTTLHours := intOrDefault("SESSION_TTL_HOURS", defaultSessionTTLHours)
	cfg.SessionTTL = time.Duration(sessionTTLHours) * time.Hour
	if cfg.SessionTTL <= 0 {
		return Config{}, errors.New("SESSION_TTL_HOURS must be > 0")
	}

	origins := parseList(envOrDefault("CORS_ALLOWED_ORIGINS", cfg.FrontendOrigin+",http://localhost:5173"))
	if len(origins) == 0 {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS must include at least one origin")
	}
	cfg.AllowedOrigins = origins

	cfg.PublicBaseURL = strings.TrimRight(envOrDefault("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port), "/")

	switch cfg.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendSQLite:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required when HISTORY_BACKEND=sqlite")
		}
		if strings.HasPrefix(cfg.DatabaseURL, "libsql://") && cfg.DatabaseAuthToken == "" {
			return Config{}, errors.New("DATABASE_AUTH_TOKEN is required for libsql:// URLs")
		}
	default:
		return Config{}, fmt.Errorf("unsupported HISTORY_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func boolOrDefault(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func intOrDefault(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
