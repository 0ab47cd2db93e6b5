package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Authing  AuthingConfig
	GitHub   GitHubConfig
	Cache    CacheConfig
	Workflow WorkflowConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// AuthingConfig holds identity provider settings.
type AuthingConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
	AppHost   string
}

// GitHubConfig holds remote content host settings.
type GitHubConfig struct {
	Owner         string
	Repo          string
	Token         string
	RatePerSecond float64
	RateBurst     int
}

// CacheConfig selects and tunes the shared cache backend.
type CacheConfig struct {
	Backend    string
	TTLSeconds int
	Redis      RedisConfig
}

// RedisConfig holds Redis connection values for the redis cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WorkflowConfig locates workflow content and the package catalog.
type WorkflowConfig struct {
	LocalDir      string
	RemoteBase    string
	FileExtension string
	CatalogPath   string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	githubRate, err := strconv.ParseFloat(getEnv("GITHUB_RATE_PER_SECOND", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GITHUB_RATE_PER_SECOND: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "starfusion-manager"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Authing: AuthingConfig{
			Enabled:   getEnvAsBool("AUTH_ENABLED", true),
			AppID:     os.Getenv("AUTH_APP_ID"),
			AppSecret: os.Getenv("AUTH_APP_SECRET"),
			AppHost:   getEnv("AUTH_APP_HOST", "https://starfusion.authing.cn"),
		},
		GitHub: GitHubConfig{
			Owner:         getEnv("GITHUB_OWNER", "mionax"),
			Repo:          getEnv("GITHUB_REPO", "starfusion-workflows"),
			Token:         os.Getenv("GITHUB_TOKEN"),
			RatePerSecond: githubRate,
			RateBurst:     getEnvAsInt("GITHUB_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			Backend:    getEnv("CACHE_BACKEND", "memory"),
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 3600),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       redisDB,
			},
		},
		Workflow: WorkflowConfig{
			LocalDir:      getEnv("WORKFLOW_LOCAL_DIR", "workflows"),
			RemoteBase:    getEnv("WORKFLOW_REMOTE_BASE", ""),
			FileExtension: getEnv("WORKFLOW_FILE_EXTENSION", ".json"),
			CatalogPath:   getEnv("PACKAGE_CATALOG_PATH", "config/package.json"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns the cache expiry duration.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
