package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all dharmad configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Day       DayConfig       `yaml:"day"`
	Auth      AuthConfig      `yaml:"auth"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the backing store. Driver is one of sqlite3, sqlite,
// postgres or mongo; Database is only read by mongo.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
}

type DayConfig struct {
	// Timezone is the IANA zone whose midnights delimit calendar days.
	Timezone string `yaml:"timezone"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	Issuer   string        `yaml:"issuer"`
}

type AssistantConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:   "sqlite3",
			DSN:      "dharmasync.db",
			Database: "dharmasync",
		},
		Day: DayConfig{
			Timezone: "UTC",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			Issuer:   "dharmasync",
		},
		Assistant: AssistantConfig{
			Model: "gemini-2.0-flash",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path, falling back to defaults when the file does not exist,
// and applies environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := getEnvString("DHARMA_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := getEnvString("DHARMA_STORE_DRIVER"); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}
	if v := getEnvString("DHARMA_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := getEnvString("DHARMA_TIMEZONE"); v != "" {
		c.Day.Timezone = v
	}
	if v := getEnvString("DHARMA_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v, ok := getEnvInt("DHARMA_TOKEN_TTL_HOURS"); ok && v > 0 {
		c.Auth.TokenTTL = time.Duration(v) * time.Hour
	}
	if v := getEnvString("GEMINI_API_KEY"); v != "" {
		c.Assistant.APIKey = v
	}
	if v := getEnvString("DHARMA_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getEnvString("DHARMA_LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v, ok := getEnvBool("DHARMA_LOG_DEBUG"); ok && v {
		c.Log.Level = "debug"
	}
}

var validDrivers = []string{"sqlite3", "sqlite", "postgres", "mongo"}

// Validate checks the settings every command needs. The auth secret is
// checked separately by RequireAuthSecret since migrate does not use it.
func (c *Config) Validate() error {
	if !contains(validDrivers, c.Store.Driver) {
		return fmt.Errorf("%w: store driver %q (valid: %v)", ErrInvalidConfig, c.Store.Driver, validDrivers)
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("%w: store dsn is empty", ErrInvalidConfig)
	}
	if c.Store.Driver == "mongo" && strings.TrimSpace(c.Store.Database) == "" {
		return fmt.Errorf("%w: store database is required for mongo", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth token_ttl must be positive", ErrInvalidConfig)
	}
	if !contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	if !contains([]string{"json", "console"}, c.Log.Format) {
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func (c *Config) RequireAuthSecret() error {
	if len(c.Auth.Secret) < 16 {
		return fmt.Errorf("%w: auth secret must be at least 16 bytes (set DHARMA_AUTH_SECRET)", ErrInvalidConfig)
	}
	return nil
}

// Location resolves the configured day timezone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Day.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, name, err)
	}
	return loc, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnvString(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
