package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/iprasannamb/qosc/internal/quantum"
)

// Config is the complete runtime configuration of the service
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// CORSOrigins lists the front-end origins allowed to call the API
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit is the sustained request rate per second, 0 disables limiting
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type SimulatorConfig struct {
	MaxQubits int `yaml:"max_qubits"`
}

type SessionsConfig struct {
	MaxSessions     int           `yaml:"max_sessions"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File enables rotated file output next to stderr
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit:    50,
			RateBurst:    100,
		},
		Simulator: SimulatorConfig{
			MaxQubits: 16,
		},
		Sessions: SessionsConfig{
			MaxSessions:     1000,
			CleanupInterval: time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the process environment, in that order
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from PORT and the QOSC_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	// PORT wins over QOSC_PORT to match common hosting platforms
	for _, key := range []string{"QOSC_PORT", "PORT"} {
		if err := num(key, &c.Server.Port); err != nil {
			return err
		}
	}

	if err := num("QOSC_MAX_QUBITS", &c.Simulator.MaxQubits); err != nil {
		return err
	}
	if err := num("QOSC_MAX_SESSIONS", &c.Sessions.MaxSessions); err != nil {
		return err
	}
	if err := num("QOSC_RATE_BURST", &c.Server.RateBurst); err != nil {
		return err
	}
	if err := dur("QOSC_CLEANUP_INTERVAL", &c.Sessions.CleanupInterval); err != nil {
		return err
	}

	if v, ok := lookup("QOSC_RATE_LIMIT"); ok && v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid QOSC_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = limit
	}

	if v, ok := lookup("QOSC_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	str("QOSC_LOG_LEVEL", &c.Log.Level)
	str("QOSC_LOG_FORMAT", &c.Log.Format)
	str("QOSC_LOG_FILE", &c.Log.File)

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %g", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("rate burst must be positive when rate limiting is on, got %d", c.Server.RateBurst)
	}

	if c.Simulator.MaxQubits < 1 || c.Simulator.MaxQubits > quantum.MaxQubits {
		return fmt.Errorf("simulator max_qubits must be between 1 and %d, got %d",
			quantum.MaxQubits, c.Simulator.MaxQubits)
	}

	if c.Sessions.MaxSessions < 1 {
		return fmt.Errorf("sessions max_sessions must be positive, got %d", c.Sessions.MaxSessions)
	}
	if c.Sessions.CleanupInterval <= 0 {
		return fmt.Errorf("sessions cleanup_interval must be positive, got %s", c.Sessions.CleanupInterval)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log format must be json or console, got %q", c.Log.Format)
	}

	return nil
}
