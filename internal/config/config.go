package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OverlapPolicy decides what happens when a second turn is requested for a
// workspace while one is still running.
type OverlapPolicy string

const (
	OverlapReject   OverlapPolicy = "reject"
	OverlapQueue    OverlapPolicy = "queue"
	OverlapCoalesce OverlapPolicy = "coalesce"
)

func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch p := OverlapPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OverlapReject, nil
	case OverlapReject, OverlapQueue, OverlapCoalesce:
		return p, nil
	}
	return "", fmt.Errorf("unknown overlap policy %q", s)
}

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// AppURL is the public frontend origin. It is sent upstream as the
	// referer and receives the sign-in redirect.
	AppURL              string
	FrontendCallbackURL string

	OpenRouter OpenRouterConfig

	ChatOverlapPolicy     OverlapPolicy
	ContextWindowMessages int

	Redis RedisConfig

	GitHub OAuthConfig
	Google OAuthConfig
}

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr    string
	Channel string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	completionTimeout, err := time.ParseDuration(getEnv("COMPLETION_TIMEOUT", "120s"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMPLETION_TIMEOUT: %w", err)
	}

	policy, err := ParseOverlapPolicy(getEnv("CHAT_OVERLAP_POLICY", string(OverlapReject)))
	if err != nil {
		return nil, err
	}

	window, err := strconv.Atoi(getEnv("CONTEXT_WINDOW_MESSAGES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONTEXT_WINDOW_MESSAGES: %w", err)
	}

	appURL := strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		AppURL:              appURL,
		FrontendCallbackURL: getEnv("FRONTEND_CALLBACK_URL", appURL+"/auth/callback"),

		OpenRouter: OpenRouterConfig{
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Timeout: completionTimeout,
		},

		ChatOverlapPolicy:     policy,
		ContextWindowMessages: window,

		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", ""),
			Channel: getEnv("REDIS_CHANNEL", ""),
		},

		GitHub: OAuthConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),
		},
		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

// LoadDatabaseURL reads only DATABASE_URL, for tools that need the store
// without the rest of the server configuration.
func LoadDatabaseURL() (string, error) {
	_ = godotenv.Load()

	url := getEnv("DATABASE_URL", "")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is not set")
	}
	return url, nil
}
