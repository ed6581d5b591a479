package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BACKOFFICE"

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	// Driver is sqlite (default), postgres or mysql.
	Driver string `mapstructure:"driver"`
	// DSN is required for postgres and mysql; for sqlite it overrides Path.
	DSN string `mapstructure:"dsn"`
	// Path is the SQLite file; ":memory:" keeps everything in process.
	Path     string `mapstructure:"path"`
	LogLevel string `mapstructure:"log_level"`
}

type CacheConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	MaxEntries      int           `mapstructure:"max_entries"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8008")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", "backoffice.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("cache.default_ttl", 5*time.Minute)
	v.SetDefault("cache.max_entries", 100)
	v.SetDefault("cache.cleanup_interval", 60*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load builds the configuration from defaults, an optional config file at path
// and BACKOFFICE_* environment variables, in increasing order of precedence.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the cache and server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "":
		if c.Database.Path == "" && c.Database.DSN == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	default:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver))
		}
	}
	if c.Cache.DefaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.default_ttl must be positive, got %s", c.Cache.DefaultTTL))
	}
	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries))
	}
	if c.Cache.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("cache.cleanup_interval must be positive, got %s", c.Cache.CleanupInterval))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
