// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server and engine settings.
type Config struct {
	Port            int           `yaml:"port"`
	LogLevel        string        `yaml:"log_level"`
	JSONLog         bool          `yaml:"json_log"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	EventBuffer     int           `yaml:"event_buffer"`
	ActivityLimit   int           `yaml:"activity_limit"`
	Session         SessionConfig `yaml:"session"`
	NATS            NATSConfig    `yaml:"nats"`
}

// SessionConfig bounds websocket console sessions.
type SessionConfig struct {
	MaxAge      time.Duration `yaml:"max_age"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	HistorySize int           `yaml:"history_size"`
}

// NATSConfig enables forwarding of analysis events. An empty URL disables it.
// Events are published to Subject + "." + event type.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:            8080,
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    10 << 20,
		EventBuffer:     256,
		ActivityLimit:   1000,
		Session: SessionConfig{
			MaxAge:      24 * time.Hour,
			IdleTimeout: 30 * time.Minute,
			HistorySize: 50,
		},
		NATS: NATSConfig{Subject: "lcm.analysis"},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		if err := setInt(&c.Port, "PORT", v); err != nil {
			return err
		}
	}
	if v, ok := lookup("LCM_PORT"); ok && v != "" {
		if err := setInt(&c.Port, "LCM_PORT", v); err != nil {
			return err
		}
	}
	if v, ok := lookup("LCM_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("LCM_JSON_LOG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LCM_JSON_LOG: %w", err)
		}
		c.JSONLog = b
	}
	if v, ok := lookup("LCM_NATS_URL"); ok {
		c.NATS.URL = v
	}
	if v, ok := lookup("LCM_NATS_SUBJECT"); ok && v != "" {
		c.NATS.Subject = v
	}
	if v, ok := lookup("LCM_EVENT_BUFFER"); ok && v != "" {
		if err := setInt(&c.EventBuffer, "LCM_EVENT_BUFFER", v); err != nil {
			return err
		}
	}
	if v, ok := lookup("LCM_MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LCM_MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = n
	}
	return nil
}

func setInt(dst *int, name, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max_body_bytes must be positive"))
	}
	if c.EventBuffer < 1 {
		errs = append(errs, errors.New("event_buffer must be at least 1"))
	}
	if c.ActivityLimit < 1 {
		errs = append(errs, errors.New("activity_limit must be at least 1"))
	}
	if c.Session.MaxAge <= 0 || c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("session max_age and idle_timeout must be positive"))
	}
	if c.Session.HistorySize < 1 {
		errs = append(errs, errors.New("session history_size must be at least 1"))
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		errs = append(errs, errors.New("nats subject is required when nats url is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
