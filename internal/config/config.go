package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	AutoSave  AutoSaveConfig  `yaml:"autosave"`
	Versions  VersionsConfig  `yaml:"versions"`
	Pages     PagesConfig     `yaml:"pages"`
	Redis     RedisConfig     `yaml:"redis"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path, when set, sends logs to a size-capped file.
	Path string `yaml:"path"`
}

// TransportConfig selects how MCP clients connect: "stdio" or "http".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls API key auth on the HTTP transport. Requests without
// auth act as DefaultTenant/DefaultUser.
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DefaultTenant string `yaml:"default_tenant"`
	DefaultUser   string `yaml:"default_user"`
}

type AutoSaveConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	BaseBackoff   time.Duration `yaml:"base_backoff"`
	MaxBackoff    time.Duration `yaml:"max_backoff"`
	MaxRetries    uint64        `yaml:"max_retries"`
	SaveTimeout   time.Duration `yaml:"save_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// MinKeepLatest is the fewest recent versions retention may be configured to keep.
const MinKeepLatest = 5

type VersionsConfig struct {
	KeepLatest   int           `yaml:"keep_latest"`
	MaxAge       time.Duration `yaml:"max_age"`
	HistoryLimit int           `yaml:"history_limit"`
}

// PagesConfig holds defaults for new projects.
type PagesConfig struct {
	InitialCount  int  `yaml:"initial_count"`
	IncludeGuards bool `yaml:"include_guards"`
}

// RedisConfig enables autosave event publishing when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// ArchiveConfig enables production snapshot archiving when Bucket is set.
type ArchiveConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: DefaultDBPath(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Auth: AuthConfig{
			DefaultTenant: "default",
			DefaultUser:   "local",
		},
		AutoSave: AutoSaveConfig{
			Debounce:      2 * time.Second,
			BaseBackoff:   time.Second,
			MaxBackoff:    10 * time.Second,
			MaxRetries:    3,
			SaveTimeout:   30 * time.Second,
			IdleTimeout:   30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Versions: VersionsConfig{
			KeepLatest:   5,
			MaxAge:       30 * 24 * time.Hour,
			HistoryLimit: 20,
		},
		Pages: PagesConfig{
			InitialCount:  20,
			IncludeGuards: true,
		},
		Archive: ArchiveConfig{
			Region: "us-east-1",
		},
	}
}

// DefaultDBPath places the database under the XDG data directory.
func DefaultDBPath() string {
	dataHome := xdg.DataHome
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "photobook.db"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "photobook", "photobook.db")
}

// Load builds configuration from defaults, then the YAML file at path (or
// PHOTOBOOK_CONFIG_PATH when path is empty), then PHOTOBOOK_* environment
// variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PHOTOBOOK_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server can't run with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q (want stdio or http)", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Auth.DefaultTenant == "" || c.Auth.DefaultUser == "" {
		return fmt.Errorf("auth default tenant and user are required")
	}
	if c.AutoSave.Debounce < 0 || c.AutoSave.BaseBackoff < 0 || c.AutoSave.MaxBackoff < 0 {
		return fmt.Errorf("autosave durations must not be negative")
	}
	if c.Versions.KeepLatest < MinKeepLatest {
		return fmt.Errorf("versions keep_latest must be at least %d", MinKeepLatest)
	}
	if c.Versions.MaxAge <= 0 {
		return fmt.Errorf("versions max_age must be positive")
	}
	if c.Versions.HistoryLimit < 0 {
		return fmt.Errorf("versions history_limit must not be negative")
	}
	if c.Pages.InitialCount < 0 {
		return fmt.Errorf("pages initial_count must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	str("PHOTOBOOK_SERVER_HOST", &cfg.Server.Host)
	str("PHOTOBOOK_DB_PATH", &cfg.DB.Path)
	str("PHOTOBOOK_LOG_LEVEL", &cfg.Log.Level)
	str("PHOTOBOOK_LOG_PATH", &cfg.Log.Path)
	str("PHOTOBOOK_TRANSPORT_MODE", &cfg.Transport.Mode)
	str("PHOTOBOOK_AUTH_DEFAULT_TENANT", &cfg.Auth.DefaultTenant)
	str("PHOTOBOOK_AUTH_DEFAULT_USER", &cfg.Auth.DefaultUser)
	str("PHOTOBOOK_REDIS_ADDR", &cfg.Redis.Addr)
	str("PHOTOBOOK_REDIS_PASSWORD", &cfg.Redis.Password)
	str("PHOTOBOOK_REDIS_CHANNEL", &cfg.Redis.Channel)
	str("PHOTOBOOK_ARCHIVE_BUCKET", &cfg.Archive.Bucket)
	str("PHOTOBOOK_ARCHIVE_REGION", &cfg.Archive.Region)
	str("PHOTOBOOK_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint)
	str("PHOTOBOOK_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKey)
	str("PHOTOBOOK_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretKey)
	str("PHOTOBOOK_ARCHIVE_PREFIX", &cfg.Archive.Prefix)

	if portStr := os.Getenv("PHOTOBOOK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PHOTOBOOK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("PHOTOBOOK_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PHOTOBOOK_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if v := os.Getenv("PHOTOBOOK_AUTOSAVE_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PHOTOBOOK_AUTOSAVE_DEBOUNCE: %w", err)
		}
		cfg.AutoSave.Debounce = d
	}
	return nil
}
