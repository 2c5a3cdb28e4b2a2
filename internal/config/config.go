package config

import (
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. GEOFORM_AUTH_JWT_SECRET.
const EnvPrefix = "GEOFORM"

// Config holds the application configuration
type Config struct {
	// Environment is "development" or "production"
	Environment string `mapstructure:"environment"`

	// LogLevel overrides the environment's default log level
	LogLevel string `mapstructure:"log_level"`

	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig controls the HTTP listener and request limits.
type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BodyLimit   int64         `mapstructure:"body_limit"`
	RateLimit   int           `mapstructure:"rate_limit"` // requests per second
	CORSOrigins []string      `mapstructure:"cors_origins"`
}

// Addr returns the bind address (host:port).
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig selects and sizes the database.
type DatabaseConfig struct {
	// URL is a postgres:// DSN or a SQLite path (optionally sqlite://)
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	JWTExpire       time.Duration `mapstructure:"jwt_expire"`
	HashConcurrency int           `mapstructure:"hash_concurrency"`
}

// CacheConfig sizes optional in-process caches.
type CacheConfig struct {
	Accounts AccountCacheConfig `mapstructure:"accounts"`
}

// MaxAccountCacheTTL bounds how long a cached account may outlive a delete
// made by another process.
const MaxAccountCacheTTL = 5 * time.Minute

// AccountCacheConfig enables the account lookup cache when Size > 0.
type AccountCacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// NewViper returns a viper instance with defaults and GEOFORM_ env bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every key so that env overrides are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.body_limit", 15*1024*1024)
	v.SetDefault("server.rate_limit", 5)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.url", "sqlite://geoform.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.migrate_on_start", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expire", time.Hour)
	v.SetDefault("auth.hash_concurrency", runtime.GOMAXPROCS(0))

	v.SetDefault("cache.accounts.size", 0)
	v.SetDefault("cache.accounts.ttl", 30*time.Second)
}

// Load reads an optional config file into v, then unmarshals and validates.
// Pass an empty path to rely on defaults and environment only.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Environment, validation.Required, validation.In("development", "production")),
	); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Server.BodyLimit, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Server.RateLimit, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.URL, validation.Required),
		validation.Field(&c.Database.MaxConnections, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	if err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.JWTSecret, validation.Required.Error("is required (set GEOFORM_AUTH_JWT_SECRET)")),
		validation.Field(&c.Auth.JWTExpire, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Auth.HashConcurrency, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	if c.Cache.Accounts.Size < 0 {
		return fmt.Errorf("invalid cache config: accounts.size must not be negative")
	}
	if c.Cache.Accounts.Size > 0 && c.Cache.Accounts.TTL > MaxAccountCacheTTL {
		return fmt.Errorf("invalid cache config: accounts.ttl must not exceed %s", MaxAccountCacheTTL)
	}
	if c.Cache.Accounts.Size > 0 && c.Cache.Accounts.TTL <= 0 {
		return fmt.Errorf("invalid cache config: accounts.ttl must be positive when the cache is enabled")
	}
	return nil
}
