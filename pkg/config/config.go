// Package config loads the optional YAML configuration shared by the roster
// binaries. Command line flags override whatever the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dukex/roster/pkg/models"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Draft    DraftConfig    `yaml:"draft"`
	EventBus EventBusConfig `yaml:"event_bus"`
	Log      LogConfig      `yaml:"log"`
	Sessions SessionsConfig `yaml:"sessions"`
	Catalogs CatalogsConfig `yaml:"catalogs"`
}

// BackendConfig points the wizard at the employee backend.
type BackendConfig struct {
	URL     string `yaml:"url"     validate:"required,url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

type DraftConfig struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace" validate:"required"`
	TTL       string `yaml:"ttl"`
}

type EventBusConfig struct {
	Provider string `yaml:"provider" validate:"oneof=gochannel kafka"`
	Brokers  string `yaml:"brokers"  validate:"required_if=Provider kafka"`
}

type LogConfig struct {
	Level  string `yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// SessionsConfig controls how long idle wizard host sessions live.
type SessionsConfig struct {
	IdleTimeout     string `yaml:"idle_timeout"`
	JanitorSchedule string `yaml:"janitor_schedule" validate:"required"`
}

// CatalogsConfig seeds the reference backend.
type CatalogsConfig struct {
	Roles       []models.Role        `yaml:"roles"         validate:"dive"`
	PaidTimeOff []models.PaidTimeOff `yaml:"paid_time_off" validate:"dive"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "http://localhost:9091",
			Timeout: "10s",
		},
		Draft: DraftConfig{
			URL:       "memory://",
			Namespace: "default",
		},
		EventBus: EventBusConfig{Provider: "gochannel"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Sessions: SessionsConfig{
			IdleTimeout:     "30m",
			JanitorSchedule: "@every 1m",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, field := range []struct{ name, value string }{
		{"backend.timeout", c.Backend.Timeout},
		{"draft.ttl", c.Draft.TTL},
		{"sessions.idle_timeout", c.Sessions.IdleTimeout},
	} {
		if field.value == "" {
			continue
		}

		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("invalid config: %s: %w", field.name, err)
		}
	}

	return nil
}

// ParseDuration parses a duration string with a fallback default.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}

	return d
}
