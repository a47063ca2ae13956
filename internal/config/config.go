package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/greensidehq/greenside/internal/logger"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutDownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
}

// DataConfig holds durable store settings.
type DataConfig struct {
	StoreType       string        `mapstructure:"store_type"` // file, memory or redis
	FilePath        string        `mapstructure:"file_path"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// UpstreamConfig holds settings for the origin the gateway fronts.
type UpstreamConfig struct {
	DataURL       string        `mapstructure:"data_url"`
	BaseURL       string        `mapstructure:"base_url"`
	DataPath      string        `mapstructure:"data_path"`
	ShellPath     string        `mapstructure:"shell_path"`
	FetchAttempts int           `mapstructure:"fetch_attempts"`
	FetchBackoff  time.Duration `mapstructure:"fetch_backoff"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
}

// MiscConfig holds everything else.
type MiscConfig struct {
	GinMode  string `mapstructure:"gin_mode"`
	LogLevel string `mapstructure:"log_level"`
}

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Misc     MiscConfig     `mapstructure:"misc"`
}

// LoadConfig reads config.yaml (from ./config or the working directory),
// applies defaults and GREENSIDE_* environment overrides, and validates the result.
func LoadConfig() (*Config, error) {
	// .env is optional; environment wins over file values either way.
	if err := godotenv.Load(); err == nil {
		logger.WithComponent("config").Debug("loaded environment from .env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("GREENSIDE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.WithComponent("config").Info("no config file found, using defaults and env vars")
		} else {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("server.idle_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.request_timeout", 15*time.Second)
	viper.SetDefault("server.cors_allowed_origins", "*")

	viper.SetDefault("data.store_type", "file")
	viper.SetDefault("data.file_path", "./config/data/store.json")
	viper.SetDefault("data.redis_addr", "localhost:6379")
	viper.SetDefault("data.refresh_interval", 5*time.Minute)

	viper.SetDefault("upstream.data_url", "https://example.com/data/tournaments.json")
	viper.SetDefault("upstream.base_url", "https://example.com")
	viper.SetDefault("upstream.data_path", "/data/")
	viper.SetDefault("upstream.shell_path", "/index.html")
	viper.SetDefault("upstream.fetch_attempts", 3)
	viper.SetDefault("upstream.fetch_backoff", time.Second)
	viper.SetDefault("upstream.fetch_timeout", 15*time.Second)

	viper.SetDefault("misc.gin_mode", "release")
	viper.SetDefault("misc.log_level", "info")
}

// validate rejects configurations the rest of the application cannot run with.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.New("server read/write timeouts must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}

	switch c.Data.StoreType {
	case "file":
		if c.Data.FilePath == "" {
			return errors.New("data file path is required for the file store")
		}
	case "memory":
	case "redis":
		if c.Data.RedisAddr == "" {
			return errors.New("redis address is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store type: %s (supported: file, memory, redis)", c.Data.StoreType)
	}
	if c.Data.RefreshInterval <= 0 {
		return errors.New("data refresh interval must be positive")
	}

	if c.Upstream.DataURL == "" {
		return errors.New("upstream data URL is required")
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream base URL is required")
	}
	if !strings.HasPrefix(c.Upstream.DataPath, "/") {
		return fmt.Errorf("upstream data path must start with '/': %s", c.Upstream.DataPath)
	}
	if c.Upstream.FetchAttempts <= 0 {
		return errors.New("upstream fetch attempts must be positive")
	}
	if c.Upstream.FetchBackoff <= 0 {
		return errors.New("upstream fetch backoff must be positive")
	}

	return nil
}
