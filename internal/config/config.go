package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. SIGNALDESK_BACKEND_BASE_URL.
const envPrefix = "SIGNALDESK"

type Config struct {
	Backend         BackendConfig   `mapstructure:"backend"`
	Exchanges       []core.Exchange `mapstructure:"exchanges" validate:"required,min=1,dive"`
	DefaultExchange string          `mapstructure:"default_exchange" validate:"required"`
	Session         SessionConfig   `mapstructure:"session"`
	Export          ExportConfig    `mapstructure:"export"`
	Server          ServerConfig    `mapstructure:"server"`
	Metrics         MetricsConfig   `mapstructure:"metrics"`
	Log             LogConfig       `mapstructure:"log"`
}

// BackendConfig points at the signal backend.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// SessionConfig controls where the email+token pair is kept between runs.
type SessionConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ExportConfig selects where exported files are saved.
type ExportConfig struct {
	Type string   `mapstructure:"type" validate:"oneof=localfs s3"`
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file, layered over Defaults, with
// SIGNALDESK_* environment variables taking precedence over both.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return decode(v)
}

// FromEnv returns Defaults with SIGNALDESK_* environment overrides applied.
// Used when no config file is given.
func FromEnv() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return decode(newViper())
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// newViper returns a viper seeded with every key from Defaults, so that
// AutomaticEnv resolves overrides for keys the file never mentions.
func newViper() *viper.Viper {
	v := viper.New()

	// Support environment variable overrides
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("exchanges", d.Exchanges)
	v.SetDefault("default_exchange", d.DefaultExchange)
	v.SetDefault("session.path", d.Session.Path)
	v.SetDefault("export.type", d.Export.Type)
	v.SetDefault("export.path", d.Export.Path)
	v.SetDefault("export.s3.bucket", d.Export.S3.Bucket)
	v.SetDefault("export.s3.endpoint", d.Export.S3.Endpoint)
	v.SetDefault("export.s3.region", d.Export.S3.Region)
	v.SetDefault("export.s3.access_key", d.Export.S3.AccessKey)
	v.SetDefault("export.s3.secret_key", d.Export.S3.SecretKey)
	v.SetDefault("export.s3.prefix", d.Export.S3.Prefix)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("log.level", d.Log.Level)

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000",
		},
		Exchanges:       core.DefaultExchanges(),
		DefaultExchange: "HKEX",
		Session: SessionConfig{
			Path: defaultSessionPath(),
		},
		Export: ExportConfig{
			Type: "localfs",
			Path: "exports",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".signaldesk", "session.yaml")
	}
	return filepath.Join(dir, "signaldesk", "session.yaml")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.FindExchange(c.DefaultExchange) == nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("default_exchange %q is not in exchanges", c.DefaultExchange))
	}

	switch c.Export.Type {
	case "localfs":
		if c.Export.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("export path required when type is localfs"))
		}
	case "s3":
		if c.Export.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when export type is s3"))
		}
	}

	return nil
}

// FindExchange returns the configured exchange with the given code.
func (c *Config) FindExchange(code string) *core.Exchange {
	for i := range c.Exchanges {
		if c.Exchanges[i].Code == code {
			return &c.Exchanges[i]
		}
	}
	return nil
}
