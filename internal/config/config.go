package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	StorageBackend   string
	DataDir          string
	PostgresDSN      string
	FirestoreProject string

	AuthMode       string
	JWTSecret      string
	AuthServiceURL string

	LLMProvider   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	CFAccountID   string
	CFAPIKey      string
	CFModel       string
	CFBaseURL     string

	GenerationTimeout   time.Duration
	VitalsWindow        int
	MonthlyTokenCeiling int
	EnforcePlanGate     bool
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads the environment once and panics on an invalid configuration.
func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		c, err := FromEnv()
		if err != nil {
			panic("Invalid config: " + err.Error())
		}
		cfg = c
	})
	return cfg
}

func FromEnv() (*Config, error) {
	c := &Config{
		Env:              getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8088"),
		StorageBackend:   getEnv("STORAGE_BACKEND", "file"),
		DataDir:          getEnv("DATA_DIR", "data"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		FirestoreProject: getEnv("FIRESTORE_PROJECT_ID", ""),
		AuthMode:         getEnv("AUTH_MODE", "jwt"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		AuthServiceURL:   getEnv("AUTH_SERVICE_URL", ""),
		LLMProvider:      getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		CFAccountID:      getEnv("CF_ACCOUNT_ID", ""),
		CFAPIKey:         getEnv("CF_API_KEY", ""),
		CFModel:          getEnv("CF_MODEL", ""),
		CFBaseURL:        getEnv("CF_BASE_URL", "https://api.cloudflare.com/client/v4"),
	}

	var err error
	if c.GenerationTimeout, err = getDuration("GENERATION_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if c.VitalsWindow, err = getInt("VITALS_WINDOW", 14); err != nil {
		return nil, err
	}
	if c.MonthlyTokenCeiling, err = getInt("MONTHLY_TOKEN_CEILING", 1_000_000); err != nil {
		return nil, err
	}
	if c.EnforcePlanGate, err = getBool("ENFORCE_PLAN_GATE", true); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	switch c.StorageBackend {
	case "file":
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required when STORAGE_BACKEND=file")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "firestore":
		if c.FirestoreProject == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required when STORAGE_BACKEND=firestore")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, postgres, firestore")
	}
	switch c.AuthMode {
	case "jwt":
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case "remote":
		if c.AuthServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	default:
		return errors.New("AUTH_MODE must be one of: jwt, remote")
	}
	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case "cloudflare":
		if c.CFAccountID == "" || c.CFAPIKey == "" || c.CFModel == "" {
			return errors.New("CF_ACCOUNT_ID, CF_API_KEY and CF_MODEL are required when LLM_PROVIDER=cloudflare")
		}
	default:
		return errors.New("LLM_PROVIDER must be one of: gemini, cloudflare")
	}
	if c.VitalsWindow < 1 {
		return errors.New("VITALS_WINDOW must be positive")
	}
	if c.MonthlyTokenCeiling < 0 {
		return errors.New("MONTHLY_TOKEN_CEILING must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
