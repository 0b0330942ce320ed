package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	MusicBackendReal = "real"
	MusicBackendDemo = "demo"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	BaseURL     string
	DatabaseURL string
	Store       string
	JWTSecret   string

	StorageBaseURL string
	StoragePath    string
	GeoIPDBPath    string

	MusicBackend string
	MusicAPIKey  string
	MusicBaseURL string
	MusicModel   string
	MusicMinSecs int
	MusicMaxSecs int
	CallbackPath string

	PromptProvider string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	OpenAIOrg      string

	TokenCostPerTrack    int64
	WelcomeBonusTokens   int64
	PaymentWebhookSecret string

	TaskRetention time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		BaseURL:     getEnv("BASE_URL", "http://localhost:"+port),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Store:       getEnv("STORE", StorePostgres),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		MusicBackend: getEnv("MUSIC_BACKEND", MusicBackendReal),
		MusicAPIKey:  os.Getenv("MUSIC_API_KEY"),
		MusicBaseURL: getEnv("MUSIC_BASE_URL", "https://api.sunoapi.org/api/v1"),
		MusicModel:   getEnv("MUSIC_MODEL", "chirp-v4"),
		MusicMinSecs: getEnvInt("MUSIC_MIN_SECONDS", 10),
		MusicMaxSecs: getEnvInt("MUSIC_MAX_SECONDS", 300),
		CallbackPath: getEnv("MUSIC_CALLBACK_PATH", "/v1/callback/music"),

		PromptProvider: getEnv("PROMPT_PROVIDER", "openai"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:      os.Getenv("OPENAI_ORG"),

		TokenCostPerTrack:    int64(getEnvInt("TOKEN_COST_PER_TRACK", 1)),
		WelcomeBonusTokens:   int64(getEnvInt("WELCOME_BONUS_TOKENS", 3)),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		TaskRetention: time.Hour * time.Duration(getEnvInt("TASK_RETENTION_HOURS", 24)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	switch cfg.Store {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	case StoreMemory:
		// Non-durable dev store, selected explicitly. Never a runtime fallback.
	default:
		return nil, fmt.Errorf("unsupported STORE %q", cfg.Store)
	}

	switch cfg.MusicBackend {
	case MusicBackendReal, MusicBackendDemo:
	default:
		return nil, fmt.Errorf("unsupported MUSIC_BACKEND %q", cfg.MusicBackend)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.TokenCostPerTrack < 0 {
		return nil, fmt.Errorf("TOKEN_COST_PER_TRACK must not be negative")
	}

	return cfg, nil
}

// CallbackURL is the publicly reachable URL handed to the music service.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.CallbackPath
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
