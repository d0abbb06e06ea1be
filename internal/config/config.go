package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		URL             string `yaml:"url" env:"DATABASE_URL"`
		SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		LogLevel        string `yaml:"log_level" env:"DB_LOG_LEVEL"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
		CleanupInterval        string `yaml:"cleanup_interval" env:"JWT_CLEANUP_INTERVAL"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	AI struct {
		APIKey             string            `yaml:"api_key" env:"OPENAI_API_KEY"`
		BaseURL            string            `yaml:"base_url" env:"OPENAI_BASE_URL"`
		ChatModel          string            `yaml:"chat_model" env:"OPENAI_CHAT_MODEL"`
		Temperature        float64           `yaml:"temperature" env:"OPENAI_TEMPERATURE"`
		MaxTokens          int               `yaml:"max_tokens" env:"OPENAI_MAX_TOKENS"`
		DefaultMode        string            `yaml:"default_mode" env:"AI_DEFAULT_MODE"`
		DefaultAssistantID string            `yaml:"default_assistant_id" env:"ASSISTANT_ID"`
		AssistantIDs       map[string]string `yaml:"assistant_ids" env:"ASSISTANT_IDS"`
		PollInterval       string            `yaml:"poll_interval" env:"ASSISTANT_POLL_INTERVAL"`
		PollTimeout        string            `yaml:"poll_timeout" env:"ASSISTANT_POLL_TIMEOUT"`
		RequestTimeout     string            `yaml:"request_timeout" env:"OPENAI_REQUEST_TIMEOUT"`
	} `yaml:"ai"`

	Credits struct {
		SignupCredits    int     `yaml:"signup_credits" env:"CREDITS_SIGNUP"`
		CostPerRequest   int     `yaml:"cost_per_request" env:"CREDITS_COST_PER_REQUEST"`
		PointsPerRequest int     `yaml:"points_per_request" env:"CREDITS_POINTS_PER_REQUEST"`
		HoursPerRequest  float64 `yaml:"hours_per_request" env:"CREDITS_HOURS_PER_REQUEST"`
		TrialDays        int     `yaml:"trial_days" env:"CREDITS_TRIAL_DAYS"`
		MaxQueryLength   int     `yaml:"max_query_length" env:"CREDITS_MAX_QUERY_LENGTH"`
	} `yaml:"credits"`

	Cache struct {
		Driver        string `yaml:"driver" env:"CACHE_DRIVER"`
		TTL           string `yaml:"ttl" env:"CACHE_TTL"`
		RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
		RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
		RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
		MaxEntries    int    `yaml:"max_entries" env:"CACHE_MAX_ENTRIES"`
	} `yaml:"cache"`

	Admin struct {
		Phone     string `yaml:"phone" env:"ADMIN_PHONE"`
		Password  string `yaml:"password" env:"ADMIN_PASSWORD"`
		Name      string `yaml:"name" env:"ADMIN_NAME"`
		StudyYear string `yaml:"study_year" env:"ADMIN_STUDY_YEAR"`
	} `yaml:"admin"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env only fills variables that are not already exported
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.SQLitePath = "afhamha.db"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.LogLevel = "warn"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "afhamha.app"
	config.JWT.CleanupInterval = "1h"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.AI.ChatModel = "gpt-4.1-mini"
	config.AI.Temperature = 0.4
	config.AI.MaxTokens = 2048
	config.AI.DefaultMode = "chat"
	config.AI.PollInterval = "1s"
	config.AI.PollTimeout = "90s"
	config.AI.RequestTimeout = "2m"

	config.Credits.SignupCredits = 20
	config.Credits.CostPerRequest = 1
	config.Credits.PointsPerRequest = 10
	config.Credits.HoursPerRequest = 0.25
	config.Credits.TrialDays = 60
	config.Credits.MaxQueryLength = 1000

	config.Cache.Driver = "memory"
	config.Cache.TTL = "24h"
	config.Cache.MaxEntries = 1000

	config.Admin.Name = "Administrator"
	config.Admin.StudyYear = "3rd_secondary_scientific"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	if err := processStructFields(config); err != nil {
		return err
	}

	loadAssistantIDsFromEnv(config)
	config.Database.URL = NormalizeDatabaseURL(config.Database.URL)
	return nil
}

// loadAssistantIDsFromEnv picks up per study year assistants exported as ASSISTANT_ID_<YEAR>
func loadAssistantIDsFromEnv(config *Config) {
	const prefix = "ASSISTANT_ID_"
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) || value == "" {
			continue
		}
		if config.AI.AssistantIDs == nil {
			config.AI.AssistantIDs = make(map[string]string)
		}
		year := strings.ToLower(strings.TrimPrefix(key, prefix))
		config.AI.AssistantIDs[year] = value
	}
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.CleanupInterval); err != nil {
		return fmt.Errorf("invalid JWT cleanup interval format: %w", err)
	}

	if config.Database.URL == "" && config.Database.SQLitePath == "" {
		return fmt.Errorf("either database url or sqlite path is required")
	}

	switch strings.ToLower(config.AI.DefaultMode) {
	case "chat", "assistant":
	default:
		return fmt.Errorf("unsupported ai default mode %q", config.AI.DefaultMode)
	}

	for _, d := range []struct{ name, value string }{
		{"ai poll interval", config.AI.PollInterval},
		{"ai poll timeout", config.AI.PollTimeout},
		{"ai request timeout", config.AI.RequestTimeout},
		{"cache ttl", config.Cache.TTL},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s format: %w", d.name, err)
		}
	}

	if config.Credits.CostPerRequest < 1 {
		return fmt.Errorf("credit cost per request must be at least 1")
	}
	if config.Credits.TrialDays < 0 || config.Credits.SignupCredits < 0 {
		return fmt.Errorf("credit settings must not be negative")
	}
	if config.Credits.MaxQueryLength < 1 {
		return fmt.Errorf("max query length must be positive")
	}

	switch strings.ToLower(config.Cache.Driver) {
	case "memory", "none", "":
	case "redis":
		if config.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address is required when cache driver is redis")
		}
	default:
		return fmt.Errorf("unsupported cache driver %q", config.Cache.Driver)
	}

	return nil
}

// NormalizeDatabaseURL rewrites the legacy postgres:// scheme to postgresql://
func NormalizeDatabaseURL(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(url, "postgres://")
	}
	return url
}

// UsesPostgres reports whether the configured database is postgres rather than the sqlite file
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.Database.URL, "postgresql://")
}

// AssistantFor returns the assistant configured for a study year, falling back to the default one
func (c *Config) AssistantFor(studyYear string) string {
	if id, ok := c.AI.AssistantIDs[studyYear]; ok && id != "" {
		return id
	}
	return c.AI.DefaultAssistantID
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
