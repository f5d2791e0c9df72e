package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/clinic/internal/email"
	"github.com/jwalitptl/clinic/pkg/messaging/redis"
)

const EnvPrefix = "CLINIC"

type Config struct {
	Database      DatabaseConfig     `mapstructure:"database"`
	Server        ServerConfig       `mapstructure:"server"`
	Reminders     ReminderConfig     `mapstructure:"reminders"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Email         EmailConfig        `mapstructure:"email"`
	Security      SecurityConfig     `mapstructure:"security"`
	Seed          SeedConfig         `mapstructure:"seed"`
	Log           LogConfig          `mapstructure:"log"`

	// Secrets never come from the config file.
	Secrets Secrets `mapstructure:"-"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	Burst           int           `mapstructure:"burst"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type ReminderConfig struct {
	LeadTime     time.Duration `mapstructure:"lead_time"`
	SyncOnChange bool          `mapstructure:"sync_on_change"`
	Timezone     string        `mapstructure:"timezone"`
	// Sinks lists where fired reminders go: log, redis, email.
	Sinks   []string `mapstructure:"sinks"`
	Channel string   `mapstructure:"channel"`
	EmailTo string   `mapstructure:"email_to"`
}

type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	From     string `mapstructure:"from"`
}

type SecurityConfig struct {
	SecureStorePath string `mapstructure:"secure_store_path"`
	KeyFile         string `mapstructure:"key_file"`
	BcryptCost      int    `mapstructure:"bcrypt_cost"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Secrets are read from CLINIC_* environment variables only.
type Secrets struct {
	// SecretKey is the hex AES-256 key of the secure store. When empty the key
	// file is used, and created on first start.
	SecretKey     string `envconfig:"SECRET_KEY"`
	EmailPassword string `envconfig:"EMAIL_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "data/clinic.db")

	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	v.SetDefault("reminders.lead_time", time.Hour)
	v.SetDefault("reminders.sync_on_change", false)
	v.SetDefault("reminders.timezone", "Local")
	v.SetDefault("reminders.sinks", []string{"log"})
	v.SetDefault("reminders.channel", "reminders")
	v.SetDefault("reminders.email_to", "")

	v.SetDefault("notifications.enabled", true)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 4)
	v.SetDefault("redis.min_idle_conns", 1)

	v.SetDefault("email.host", "localhost")
	v.SetDefault("email.port", 25)
	v.SetDefault("email.username", "")
	v.SetDefault("email.from", "clinic@localhost")

	v.SetDefault("security.secure_store_path", "data/secure.bin")
	v.SetDefault("security.key_file", "data/secret.key")
	v.SetDefault("security.bcrypt_cost", 12)

	v.SetDefault("seed.enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// LoadConfig reads config.yaml from ".", "./config" or the file named by
// CLINIC_CONFIG_FILE, then applies CLINIC_* environment overrides. A missing
// config file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config.Secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets from environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Reminders.LeadTime <= 0 {
		return errors.New("reminders.lead_time must be positive")
	}
	if _, err := c.Reminders.Location(); err != nil {
		return err
	}
	for _, sink := range c.Reminders.Sinks {
		switch sink {
		case "log", "redis", "email":
		default:
			return fmt.Errorf("unknown reminder sink %q", sink)
		}
	}
	return nil
}

// Location resolves the reminder time zone.
func (c ReminderConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reminders.timezone: %w", err)
	}
	return loc, nil
}

func (c ReminderConfig) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *Config) ToEmailConfig() email.Config {
	return email.Config{
		Host:     c.Email.Host,
		Port:     c.Email.Port,
		Username: c.Email.Username,
		Password: c.Secrets.EmailPassword,
		From:     c.Email.From,
	}
}
