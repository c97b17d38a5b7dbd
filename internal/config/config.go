// Package config loads billcalc settings from defaults, a .env file, a TOML
// file and BILLCALC_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/mmynk/billcalc/internal/calculator"
)

// Config holds all billcalc configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Auth       AuthConfig       `toml:"auth"`
	Log        LogConfig        `toml:"log"`
	Calculator CalculatorConfig `toml:"calculator"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DatabaseConfig selects and locates the store.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite or postgres
	Path   string `toml:"path,omitempty"`
	URL    string `toml:"url,omitempty"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// CalculatorConfig holds defaults for newly created calculators.
type CalculatorConfig struct {
	DefaultMode    string   `toml:"default_mode"`
	DefaultTaxRate *float64 `toml:"default_tax_rate,omitempty"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	devJWTSecret = "dev-secret-change-me"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: "./data/billcalc.db"},
		Auth:     AuthConfig{JWTSecret: devJWTSecret, TokenTTL: "24h"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Calculator: CalculatorConfig{
			DefaultMode: calculator.ModeManual.String(),
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "billcalc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "billcalc")
}

// DefaultPath returns the full path to the default config file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load builds the configuration. An empty path means DefaultPath. Missing
// files are not errors; defaults fill the gaps.
func Load(path string) (Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(envFile); err == nil {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing config file: %w", err)
	}
	return nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	if _, err := c.DefaultMode(); err != nil {
		return err
	}
	if r := c.Calculator.DefaultTaxRate; r != nil && *r < 0 {
		return fmt.Errorf("calculator.default_tax_rate must be >= 0, got %v", *r)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// TokenTTL parses auth.token_ttl.
func (c Config) TokenTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("auth.token_ttl: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("auth.token_ttl must be positive, got %s", d)
	}
	return d, nil
}

// DefaultMode parses calculator.default_mode.
func (c Config) DefaultMode() (calculator.GuestCountMode, error) {
	return calculator.ParseGuestCountMode(c.Calculator.DefaultMode)
}

// UsesDevSecret reports whether the built-in development JWT secret is in effect.
func (c Config) UsesDevSecret() bool {
	return c.Auth.JWTSecret == devJWTSecret
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("BILLCALC_SERVER_ADDR", &cfg.Server.Addr)
	setString("BILLCALC_DB_DRIVER", &cfg.Database.Driver)
	setString("BILLCALC_DB_PATH", &cfg.Database.Path)
	setString("BILLCALC_DATABASE_URL", &cfg.Database.URL)
	setString("BILLCALC_JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("BILLCALC_TOKEN_TTL", &cfg.Auth.TokenTTL)
	setString("BILLCALC_LOG_LEVEL", &cfg.Log.Level)
	setString("BILLCALC_LOG_FORMAT", &cfg.Log.Format)
	setString("BILLCALC_DEFAULT_MODE", &cfg.Calculator.DefaultMode)

	if v := strings.TrimSpace(os.Getenv("BILLCALC_DEFAULT_TAX_RATE")); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BILLCALC_DEFAULT_TAX_RATE: %w", err)
		}
		cfg.Calculator.DefaultTaxRate = &rate
	}
	return nil
}
