package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/medisearch-pro/backend/pkg/secrets"
)

// Config holds all application configuration
type Config struct {
	Env           string
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Typesense     TypesenseConfig
	Catalog       CatalogConfig
	AI            AIConfig
	Reminders     ReminderConfig
	Notifications NotificationConfig
	Report        ReportConfig
	OTEL          OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver        string // postgres or sqlite
	Host          string
	Port          int
	User          string
	Password      string
	Database      string
	SSLMode       string
	SQLitePath    string
	RunMigrations bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// CatalogConfig selects where directory data is read from.
type CatalogConfig struct {
	Source string // memory or postgres
	File   string // optional YAML override for the memory source
	Watch  bool
}

// AIConfig holds LLM provider configuration
type AIConfig struct {
	Provider          string // gemini or openai
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	RequestsPerMinute int
	Timeout           time.Duration
	MaxRetries        int
}

// ReminderConfig controls the due-reminder notifier and the zone checkup
// days are counted in.
type ReminderConfig struct {
	NotifyEnabled  bool
	NotifyInterval time.Duration
	NotifyLead     time.Duration
	TimeZone       string
	Location       *time.Location
}

// NotificationConfig holds outbound messaging credentials
type NotificationConfig struct {
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppRecipient     string
	TelegramBotToken      string
	TelegramChatID        int64
}

// ReportConfig holds PDF export configuration
type ReportConfig struct {
	FontPaths []string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real env vars win. With
// VAULT_ENABLED=true the secret at VAULT_PATH is exported before parsing.
func Load() (*Config, error) {
	_ = godotenv.Load()

	vault := secrets.VaultConfigFromEnv()
	if vault.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 4*vault.Timeout)
		_, err := secrets.ApplyVault(ctx, vault)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to load vault secrets: %w", err)
		}
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			Database:      getEnv("DB_NAME", "medisearch"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			SQLitePath:    getEnv("SQLITE_PATH", "medisearch.db"),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Catalog: CatalogConfig{
			Source: strings.ToLower(getEnv("CATALOG_SOURCE", "memory")),
			File:   getEnv("CATALOG_FILE", ""),
			Watch:  getEnvAsBool("CATALOG_WATCH", false),
		},
		AI: AIConfig{
			Provider:          strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			RequestsPerMinute: getEnvAsInt("AI_REQUESTS_PER_MINUTE", 60),
			Timeout:           getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
			MaxRetries:        getEnvAsInt("AI_MAX_RETRIES", 3),
		},
		Reminders: ReminderConfig{
			NotifyEnabled:  getEnvAsBool("REMINDER_NOTIFY_ENABLED", true),
			NotifyInterval: getEnvAsDuration("REMINDER_NOTIFY_INTERVAL", 15*time.Minute),
			NotifyLead:     getEnvAsDuration("REMINDER_NOTIFY_LEAD", 24*time.Hour),
			TimeZone:       getEnv("REMINDER_TIMEZONE", "UTC"),
		},
		Notifications: NotificationConfig{
			WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			WhatsAppRecipient:     getEnv("WHATSAPP_RECIPIENT", ""),
			TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID:        getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		},
		Report: ReportConfig{
			FontPaths: getEnvAsList("REPORT_FONT_PATHS", []string{
				"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			}),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medisearch-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	loc, err := time.LoadLocation(cfg.Reminders.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", cfg.Reminders.TimeZone, err)
	}
	cfg.Reminders.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	switch c.Catalog.Source {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unsupported CATALOG_SOURCE %q (want memory or postgres)", c.Catalog.Source)
	}
	if c.Catalog.Source == "postgres" && c.Database.Driver != "postgres" {
		return fmt.Errorf("CATALOG_SOURCE=postgres requires DB_DRIVER=postgres")
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q (want gemini or openai)", c.AI.Provider)
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("AI_REQUESTS_PER_MINUTE must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// MigrationURL returns the URL form golang-migrate expects.
func (c *DatabaseConfig) MigrationURL() string {
	if c.Driver == "sqlite" {
		return "sqlite://" + c.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
