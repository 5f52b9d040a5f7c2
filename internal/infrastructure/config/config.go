// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	aiapp "github.com/holidaytable/planner/internal/application/ai"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "HOLIDAYTABLE"

// credentialEnvVars are checked in order when ai.api_key is not set
var credentialEnvVars = []string{"HOLIDAYTABLE_AI_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	AI         AIConfig         `mapstructure:"ai"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// file is the config file that was read, empty when running on defaults
	file string
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	// LogFile receives logs in terminal mode so they do not garble the screen
	LogFile string `mapstructure:"log_file"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCompression bool          `mapstructure:"enable_compression"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
}

// StorageConfig selects where the planner state lives
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	Key    string `mapstructure:"key"`
}

// DatabaseConfig contains SQL database configuration
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ClusterNodes []string      `mapstructure:"cluster_nodes"`
}

// AIConfig contains AI provider configuration
type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Models   aiapp.Models  `mapstructure:"models"`
}

// ChatConfig controls in-memory chat sessions
type ChatConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	ServiceName     string  `mapstructure:"service_name"`
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is applied first; variables
// already set in the environment win.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/holidaytable")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults are enough to run
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.file = v.ConfigFileUsed()

	if config.AI.APIKey == "" {
		config.AI.APIKey = credentialFromEnv()
	}
	config.AI.Models = config.AI.Models.WithDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func credentialFromEnv() string {
	for _, name := range credentialEnvVars {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Holiday Table")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.log_file", "holidaytable.log")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	// AI calls have no deadline of their own
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.enable_compression", true)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "data")
	v.SetDefault("storage.key", "holiday_table_app_v1")

	v.SetDefault("database.path", "data/holidaytable.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "holidaytable:")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	defaults := aiapp.DefaultModels()
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", "0s")
	v.SetDefault("ai.models.recipe", defaults.Recipe)
	v.SetDefault("ai.models.random_dish", defaults.RandomDish)
	v.SetDefault("ai.models.prices", defaults.Prices)
	v.SetDefault("ai.models.chat", defaults.Chat)

	v.SetDefault("chat.session_ttl", "24h")

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.sampling_rate", 1.0)
	v.SetDefault("monitoring.service_name", "holidaytable")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "", "file", "memory", "sqlite", "redis":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}

	switch strings.ToLower(c.AI.Provider) {
	case "", "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("ai.provider %q is not supported", c.AI.Provider)
	}

	if c.AI.Timeout < 0 {
		return fmt.Errorf("ai.timeout must not be negative")
	}

	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the host:port the web server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// File returns the config file in use, if any
func (c *Config) File() string {
	return c.file
}

// Watch reloads the config file on change and hands the new value to
// onChange. Invalid edits are logged and ignored. It does nothing when
// no config file was read.
func Watch(configPath string, logger *zap.Logger, onChange func(*Config)) error {
	v, err := newViper(configPath)
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}

	logger = logger.Named("config")
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("Configuration reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
