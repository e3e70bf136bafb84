package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/opsboard/pkg/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Discord       DiscordConfig       `yaml:"discord"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL        string `yaml:"url" env:"NATS_URL"`
	NKeySeed   string `yaml:"nkey_seed" env:"NATS_NKEY_SEED"`
	QueueGroup string `yaml:"queue_group" env:"NATS_QUEUE_GROUP"`
}

// HTTPConfig holds the API server configuration.
type HTTPConfig struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	RateLimit      float64       `yaml:"rate_limit" env:"HTTP_RATE_LIMIT"`
	RateBurst      int           `yaml:"rate_burst" env:"HTTP_RATE_BURST"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace" env:"HTTP_SHUTDOWN_GRACE"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"JWT_SECRET"`
	DefaultTTL time.Duration `yaml:"default_ttl" env:"JWT_DEFAULT_TTL"`
}

// DiscordConfig holds Discord OAuth and webhook configuration.
type DiscordConfig struct {
	ClientID     string        `yaml:"client_id" env:"DISCORD_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"DISCORD_CLIENT_SECRET"`
	RedirectURL  string        `yaml:"redirect_url" env:"DISCORD_REDIRECT_URL"`
	WebhookURL   string        `yaml:"webhook_url" env:"DISCORD_WEBHOOK_URL"`
	ReminderLead time.Duration `yaml:"reminder_lead" env:"DISCORD_REMINDER_LEAD"`
}

// QueueConfig holds the background job queue configuration.
type QueueConfig struct {
	Enabled    bool `yaml:"enabled" env:"QUEUE_ENABLED"`
	MaxWorkers int  `yaml:"max_workers" env:"QUEUE_MAX_WORKERS"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment     string  `yaml:"environment" env:"ENV"`
	LogLevel        string  `yaml:"log_level" env:"LOG_LEVEL"`
	TempoEndpoint   string  `yaml:"tempo_endpoint" env:"TEMPO_ENDPOINT"`
	TempoInsecure   bool    `yaml:"tempo_insecure" env:"TEMPO_INSECURE"`
	TempoSampleRate float64 `yaml:"tempo_sample_rate" env:"TEMPO_SAMPLE_RATE"`
}

// LoadDotEnv loads variables from a .env file when one exists. Variables that
// are already set in the process environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// LoadConfig loads the configuration from a YAML file and applies environment
// overrides on top of it.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimit <= 0 {
		c.HTTP.RateLimit = 10
	}
	if c.HTTP.RateBurst <= 0 {
		c.HTTP.RateBurst = 20
	}
	if c.HTTP.ShutdownGrace <= 0 {
		c.HTTP.ShutdownGrace = 15 * time.Second
	}
	if c.JWT.DefaultTTL <= 0 {
		c.JWT.DefaultTTL = 24 * time.Hour
	}
	if c.Discord.ReminderLead <= 0 {
		c.Discord.ReminderLead = 30 * time.Minute
	}
	if c.Queue.MaxWorkers <= 0 {
		c.Queue.MaxWorkers = 10
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres dsn is required (DATABASE_URL)")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 characters (JWT_SECRET)")
	}
	return nil
}

// ToObsConfig maps the observability settings onto the observability package.
func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName: "opsboard",
		Environment: appCfg.Observability.Environment,
		LogLevel:    appCfg.Observability.LogLevel,

		TempoEndpoint:   appCfg.Observability.TempoEndpoint,
		TempoInsecure:   appCfg.Observability.TempoInsecure,
		TempoSampleRate: appCfg.Observability.TempoSampleRate,
	}
}
