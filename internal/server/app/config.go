package app

import (
	"errors"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingSecret = errors.New("config: TOKENGATE_SECRET is required")

type Config struct {
	Secret        string        // Required: shared HMAC secret
	Algorithm     string        // Optional: HS256, HS384, HS512 (default: HS256)
	TokenLife     time.Duration // Optional: token lifetime (default: 60m)
	RefreshLeeway time.Duration // Optional: refresh grace after expiry (default: 0, disabled)

	IssuanceEndpoint string  // Optional: (default: /api-token-auth)
	RefreshEndpoint  string  // Optional: (default: /api-token-refresh)
	HeaderName       string  // Optional: (default: Authorization)
	HeaderPrefix     *string // Optional: nil keeps "Bearer ", set-but-empty means no prefix

	DatabaseFile      string // Optional: path to SQLite database file (default: ./tokengate.db)
	PepperFile        string // Optional: path to the password pepper file (default: ./pepper)
	BootstrapUsername string // Optional: admin seeded into an empty database
	BootstrapPassword string // Optional: generated and logged once when empty

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	LookupTimeout       time.Duration // Store deadline per credential lookup (default: 5s)

	// LogOutput overrides stdout for the logger; not read from the environment.
	LogOutput io.Writer
}

// LoadConfig reads the environment, after loading a .env file when present.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Secret:        os.Getenv("TOKENGATE_SECRET"),
		Algorithm:     getEnvOrDefault("TOKENGATE_ALGORITHM", "HS256"),
		TokenLife:     getEnvDurationOrDefault("TOKENGATE_TOKEN_LIFE", 60*time.Minute),
		RefreshLeeway: getEnvSecondsOrDefault("TOKENGATE_REFRESH_LEEWAY", 0),

		IssuanceEndpoint: os.Getenv("TOKENGATE_ISSUANCE_ENDPOINT"),
		RefreshEndpoint:  os.Getenv("TOKENGATE_REFRESH_ENDPOINT"),
		HeaderName:       os.Getenv("TOKENGATE_HEADER_NAME"),

		DatabaseFile:      getEnvOrDefault("DATABASE_FILE", "tokengate.db"),
		PepperFile:        getEnvOrDefault("PEPPER_FILE", "pepper"),
		BootstrapUsername: os.Getenv("BOOTSTRAP_USERNAME"),
		BootstrapPassword: os.Getenv("BOOTSTRAP_PASSWORD"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		LookupTimeout:       getEnvDurationOrDefault("LOOKUP_TIMEOUT", 5*time.Second),
	}

	// An empty prefix is meaningful, so presence matters here.
	if prefix, ok := os.LookupEnv("TOKENGATE_HEADER_PREFIX"); ok {
		cfg.HeaderPrefix = &prefix
	}

	return cfg
}

// Validate reports configuration the server cannot start with. Everything
// else is checked again by jwtauth.New.
func (c Config) Validate() error {
	if c.Secret == "" {
		return ErrMissingSecret
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

// getEnvDurationOrDefault accepts a Go duration or a bare number of minutes.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	return getEnvDuration(key, defaultValue, time.Minute)
}

// getEnvSecondsOrDefault accepts a Go duration or a bare number of seconds.
func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	return getEnvDuration(key, defaultValue, time.Second)
}

func getEnvDuration(key string, defaultValue, unit time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * unit
	}

	return defaultValue
}
