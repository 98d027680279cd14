package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const prodString = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       []string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// StrictCreateOverlap makes pending bookings block creation instead of
	// being resolved later by the conflict sweep.
	StrictCreateOverlap bool

	SweepInterval  time.Duration
	ExpiryInterval time.Duration
	RollupInterval time.Duration
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	cfg := &Config{}

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == prodString

	// Allowed CORS origins in production, comma-separated
	if origins := getEnv("PROD_ORIGINS", ""); origins != "" {
		cfg.ProdOrigins = strings.Split(origins, ",")
	}

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for validating tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.StrictCreateOverlap, err = getEnvAsBool("STRICT_CREATE_OVERLAP", false)
	if err != nil {
		return nil, err
	}

	cfg.SweepInterval, err = getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.ExpiryInterval, err = getEnvAsDuration("EXPIRY_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.RollupInterval, err = getEnvAsDuration("ROLLUP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
// (e.g. "15m", "1h"). It returns the default value if the variable is unset.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}

// getEnvAsBool retrieves an environment variable as a boolean.
// It returns the default value if the variable is not set.
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}
