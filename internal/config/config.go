package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix         = "TASKIT"
	DefaultConfigFile = "config.yml"

	RepositoryPostgres = "postgres"
	RepositoryInMemory = "inmemory"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Auth       AuthConfig       `yaml:"auth"`
	Blob       BlobConfig       `yaml:"blob"`
	App        AppConfig        `yaml:"app"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RateLimit       int           `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConnections  int32         `yaml:"max_connections"`
	MinConnections  int32         `yaml:"min_connections"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ConnectAttempts uint64        `yaml:"connect_attempts"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres" or "inmemory"
}

type AuthConfig struct {
	DSN           string        `yaml:"dsn"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

type BlobConfig struct {
	RootDir  string `yaml:"root_dir"`
	BaseURL  string `yaml:"base_url"`
	MaxBytes int64  `yaml:"max_bytes"`
}

type AppConfig struct {
	Timezone string `yaml:"timezone"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 300)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.connect_attempts", 5)

	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", RepositoryInMemory)

	v.SetDefault("auth.dsn", "data/auth.db")
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)
	v.SetDefault("auth.sweep_schedule", "@every 30m")

	v.SetDefault("blob.root_dir", "data/blobs")
	v.SetDefault("blob.base_url", "/blobs")
	v.SetDefault("blob.max_bytes", 400*1024)

	v.SetDefault("app.timezone", "UTC")
}

// Load reads path (or ./config.yml when path is empty and the file exists),
// applies TASKIT_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for the postgres repository")
		}
	default:
		return fmt.Errorf("config: unknown repository.type %q", c.Repository.Type)
	}
	if c.Server.Port == "" {
		return errors.New("config: server.port is required")
	}
	if c.Blob.MaxBytes <= 0 {
		return errors.New("config: blob.max_bytes must be positive")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("config: app.timezone: %w", err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// Location returns the default zone for due-date evaluation. Validate has
// already checked the name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// YAML renders the effective config with the database password masked.
func (c *Config) YAML() ([]byte, error) {
	redacted := *c
	redacted.Database.URL = redactURL(c.Database.URL)
	return yaml.Marshal(&redacted)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
