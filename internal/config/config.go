// Package config loads the server configuration from the environment.
//
// LOADING ORDER:
//  1. godotenv.Load() reads a .env file in the working directory, if there is one.
//     It never overrides a variable that is already set in the real environment.
//  2. Every setting is read from its environment variable, falling back to a default.
//  3. Validate() rejects combinations the server cannot start with.
//
// Nothing here is hard-coded that should be secret: SECRET_KEY has no default
// and the server refuses to start without it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends accepted by SESSION_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds every externally supplied setting.
type Config struct {
	Port   int
	DBPath string

	// SecretKey signs the session cookie. Minimum 16 characters.
	SecretKey      string
	SessionBackend string
	SessionTTL     time.Duration
	CookieSecure   bool

	// TrustProxy makes the server take the client address from
	// X-Forwarded-For / X-Real-IP. Only enable it behind a proxy that
	// overwrites those headers.
	TrustProxy bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// GitHub sign-in is enabled only when both id and secret are present.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	LoginRatePerMin int
	LogLevel        string
	MaxUploadMB     int64
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	// A missing .env file is normal in production; only the environment matters.
	_ = godotenv.Load()

	var errs []error

	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "data/journal.db"),
		SecretKey:          os.Getenv("SECRET_KEY"),
		SessionBackend:     strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	cfg.Port, errs = intEnv("PORT", 8080, errs)
	cfg.RedisDB, errs = intEnv("REDIS_DB", 0, errs)
	cfg.LoginRatePerMin, errs = intEnv("LOGIN_RATE_PER_MIN", 10, errs)

	maxUpload, errs := intEnv("MAX_UPLOAD_MB", 10, errs)
	cfg.MaxUploadMB = int64(maxUpload)

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
	}
	cfg.SessionTTL = ttl

	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("COOKIE_SECURE: %w", err))
	}
	cfg.CookieSecure = secure

	trustProxy, err := strconv.ParseBool(getEnv("TRUST_PROXY", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("TRUST_PROXY: %w", err))
	}
	cfg.TrustProxy = trustProxy

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	} else if len(c.SecretKey) < 16 {
		errs = append(errs, errors.New("SECRET_KEY must be at least 16 characters"))
	}

	switch c.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when SESSION_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND %q is not one of memory, redis", c.SessionBackend))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.LoginRatePerMin <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MIN must be positive"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// GitHubEnabled reports whether "Sign in with GitHub" should be offered.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// intEnv parses an integer variable and appends a parse failure to errs
// instead of returning early, so Load can report all bad values together.
func intEnv(key string, fallback int, errs []error) (int, []error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, errs
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, append(errs, fmt.Errorf("%s: %q is not an integer", key, raw))
	}
	return n, errs
}
