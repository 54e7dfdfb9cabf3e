// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Akahu        AkahuConfig
	API          APIConfig
	Sync         SyncConfig
	Refresh      RefreshConfig
	Telegram     TelegramConfig
	Notification NotificationConfig
	Log          LogConfig
	Telemetry    TelemetryConfig
}

type ServerConfig struct {
	Host           string `koanf:"HOST"`
	Port           string `koanf:"PORT"`
	AllowedOrigins string `koanf:"ALLOWED_ORIGINS"`
}

type DatabaseConfig struct {
	Host     string `koanf:"DB_HOST"`
	Port     int    `koanf:"DB_PORT"`
	User     string `koanf:"DB_USER"`
	Password string `koanf:"DB_PASSWORD"`
	DBName   string `koanf:"DB_NAME"`
	SSLMode  string `koanf:"DB_SSLMODE"`
}

// ConnectionString builds a lib/pq connection string.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AkahuConfig struct {
	AppToken  string `koanf:"AKAHU_APP_TOKEN"`
	UserToken string `koanf:"AKAHU_USER_TOKEN"`
	BaseURL   string `koanf:"AKAHU_BASE_URL"`
}

// APIConfig holds the shared secret callers must present as the apiKey
// query parameter. Either the plaintext key or a bcrypt hash of it may be
// configured; the hash wins when both are set.
type APIConfig struct {
	Key     string `koanf:"API_KEY"`
	KeyHash string `koanf:"API_KEY_HASH"`
}

type SyncConfig struct {
	Interval     time.Duration `koanf:"SYNC_INTERVAL"`
	Window       time.Duration `koanf:"SYNC_WINDOW"`
	RunOnStartup bool          `koanf:"SYNC_RUN_ON_STARTUP"`
	Workers      int           `koanf:"SYNC_WORKERS"`
	QueueSize    int           `koanf:"SYNC_QUEUE_SIZE"`
}

// RefreshConfig bounds the settle wait between triggering an account
// refresh at the aggregator and running the follow-up sync.
type RefreshConfig struct {
	PollInterval time.Duration `koanf:"REFRESH_POLL_INTERVAL"`
	PollAttempts uint          `koanf:"REFRESH_POLL_ATTEMPTS"`
}

type TelegramConfig struct {
	BotToken string `koanf:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `koanf:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether both Telegram credentials are configured.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// Partial reports whether exactly one of the two Telegram credentials is
// set, which almost always means a misconfiguration worth warning about.
func (c TelegramConfig) Partial() bool {
	return (c.BotToken == "") != (c.ChatID == "")
}

type NotificationConfig struct {
	Timezone string `koanf:"NOTIFY_TIMEZONE"`
}

type LogConfig struct {
	Level  string `koanf:"LOG_LEVEL"`
	Pretty bool   `koanf:"LOG_PRETTY"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"OTEL_ENABLED"`
	ServiceName  string `koanf:"OTEL_SERVICE_NAME"`
	OTLPEndpoint string `koanf:"OTEL_EXPORTER_ENDPOINT"`
	MetricsPort  string `koanf:"METRICS_PORT"`
}

// Load reads configuration from the environment, applies defaults and
// validates required settings.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := defaults()
	// Env keys are flat, so each section is unmarshalled against the full
	// key set; its koanf tags pick out the variables that belong to it.
	sections := []any{
		&cfg.Server, &cfg.Database, &cfg.Akahu, &cfg.API, &cfg.Sync,
		&cfg.Refresh, &cfg.Telegram, &cfg.Notification, &cfg.Log, &cfg.Telemetry,
	}
	for _, section := range sections {
		if err := k.UnmarshalWithConf("", section, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "akasync",
			SSLMode: "disable",
		},
		Akahu: AkahuConfig{
			BaseURL: "https://api.akahu.io/v1",
		},
		Sync: SyncConfig{
			Interval:     15 * time.Minute,
			Window:       365 * 24 * time.Hour,
			RunOnStartup: true,
			Workers:      1,
			QueueSize:    16,
		},
		Refresh: RefreshConfig{
			PollInterval: 2 * time.Second,
			PollAttempts: 5,
		},
		Notification: NotificationConfig{
			Timezone: "Pacific/Auckland",
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "akasync",
			OTLPEndpoint: "localhost:4317",
			MetricsPort:  "9090",
		},
	}
}

func (c *Config) validate() error {
	if c.Akahu.AppToken == "" {
		return fmt.Errorf("AKAHU_APP_TOKEN is required")
	}
	if c.Akahu.UserToken == "" {
		return fmt.Errorf("AKAHU_USER_TOKEN is required")
	}
	if c.API.Key == "" && c.API.KeyHash == "" {
		return fmt.Errorf("API_KEY or API_KEY_HASH is required")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.Sync.Window <= 0 {
		return fmt.Errorf("SYNC_WINDOW must be positive")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be at least 1")
	}
	return nil
}
