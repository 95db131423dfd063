// Package config loads service settings from an optional .env file, an
// optional YAML file, and environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Store      string           `yaml:"store"`
	HTTP       HTTPConfig       `yaml:"http"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Scoreboard ScoreboardConfig `yaml:"scoreboard"`
	Log        LogConfig        `yaml:"log"`
}

// HTTPConfig holds listener and middleware settings.
type HTTPConfig struct {
	Addr           string          `yaml:"addr"`
	ReadTimeout    time.Duration   `yaml:"read_timeout"`
	WriteTimeout   time.Duration   `yaml:"write_timeout"`
	IdleTimeout    time.Duration   `yaml:"idle_timeout"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	StaticDir      string          `yaml:"static_dir"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is the per-IP token bucket applied to write endpoints.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// PostgresConfig holds PostgreSQL connection settings. DSN takes precedence
// over the individual fields when set.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// URL returns a postgres:// connection URL, either DSN verbatim or one
// assembled from the individual fields.
func (c PostgresConfig) URL() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisConfig configures the optional scoreboard cache. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SessionConfig configures signed session tokens.
type SessionConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// ScoreboardConfig holds leaderboard settings.
type ScoreboardConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a config suitable for local development.
func Default() *Config {
	return &Config{
		Store: StorePostgres,
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit:    RateLimitConfig{RPS: 5, Burst: 20},
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "coursecast",
			SSLMode:  "disable",
			MaxConns: 20,
			MinConns: 2,
		},
		Redis: RedisConfig{TTL: 5 * time.Second},
		Session: SessionConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Scoreboard: ScoreboardConfig{RefreshInterval: 10 * time.Second},
		Log:        LogConfig{Level: "info", Format: "json"},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are left alone. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load builds the config from defaults, the YAML file at path (if it exists)
// and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("store must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.HTTP.RateLimit.RPS < 0 || c.HTTP.RateLimit.Burst < 0 {
		return errors.New("http.rate_limit values must not be negative")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Scoreboard.RefreshInterval <= 0 {
		return errors.New("scoreboard.refresh_interval must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Store, "STORE")

	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + v
	}
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.HTTP.StaticDir, "STATIC_DIR")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}

	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	for key, dst := range map[string]*time.Duration{
		"SCOREBOARD_CACHE_TTL":        &cfg.Redis.TTL,
		"SESSION_TTL":                 &cfg.Session.TTL,
		"SCOREBOARD_REFRESH_INTERVAL": &cfg.Scoreboard.RefreshInterval,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
