// Package config loads service configuration from the environment, an
// optional .env file and an optional YAML file.
//
// Precedence, lowest first: struct defaults, environment (including .env),
// YAML file. The YAML file only overrides the keys it sets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/garrett-reinhard/ord-interface/internal/engine"
	"github.com/garrett-reinhard/ord-interface/internal/logging"
	"github.com/garrett-reinhard/ord-interface/internal/store"
)

var (
	ErrMissingHost      = errors.New("postgres host is required")
	ErrInvalidPort      = errors.New("postgres port must be in 1..65535")
	ErrMissingDatabase  = errors.New("postgres database is required")
	ErrInvalidPoolSize  = errors.New("postgres max_conns must be positive")
	ErrInvalidRateLimit = errors.New("rate limit rps and burst must not be negative")
	ErrInvalidTimeout   = errors.New("server timeouts must not be negative")
)

// Config holds all configuration for the service.
type Config struct {
	Postgres  PostgresConfig  `yaml:"postgres"`
	Server    ServerConfig    `yaml:"server"`
	Query     engine.Config   `yaml:"query"`
	Log       logging.Config  `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// PostgresConfig holds database connection settings. The environment
// variable names match the ones the ORD database images use.
type PostgresConfig struct {
	Host           string        `yaml:"host" envconfig:"POSTGRES_HOST" default:"localhost"`
	Port           int           `yaml:"port" envconfig:"POSTGRES_PORT" default:"5432"`
	User           string        `yaml:"user" envconfig:"POSTGRES_USER" default:"ord-postgres"`
	Password       string        `yaml:"password" envconfig:"POSTGRES_PASSWORD" default:"ord-postgres"`
	Database       string        `yaml:"database" envconfig:"POSTGRES_DATABASE" default:"ord"`
	SSLMode        string        `yaml:"sslmode" envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxConns       int32         `yaml:"max_conns" envconfig:"POSTGRES_MAX_CONNS" default:"10"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"POSTGRES_CONNECT_TIMEOUT" default:"5s"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"SERVER_ADDR" default:":5000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// RateLimitConfig holds API rate limiting settings. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" envconfig:"RATE_LIMIT_RPS" default:"0"`
	Burst int     `yaml:"burst" envconfig:"RATE_LIMIT_BURST" default:"20"`
}

// DSN returns the connection URL for the database.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {p.SSLMode}}.Encode()
	}
	return u.String()
}

// StoreOptions returns the pool options.
func (p PostgresConfig) StoreOptions() store.Options {
	return store.Options{
		MaxConns:       p.MaxConns,
		ConnectTimeout: p.ConnectTimeout,
	}
}

// Load builds a Config. dotenv files are loaded first when they exist and never
// override variables already set. path names an optional YAML file; empty
// skips it.
func Load(path string, dotenv ...string) (*Config, error) {
	if err := loadDotEnv(dotenv...); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Postgres.Host == "":
		return ErrMissingHost
	case c.Postgres.Port < 1 || c.Postgres.Port > 65535:
		return ErrInvalidPort
	case c.Postgres.Database == "":
		return ErrMissingDatabase
	case c.Postgres.MaxConns <= 0:
		return ErrInvalidPoolSize
	case c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0:
		return ErrInvalidRateLimit
	case c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0:
		return ErrInvalidTimeout
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}
