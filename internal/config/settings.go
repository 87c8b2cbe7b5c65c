// Package config loads the control plane's settings from an optional YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings configures the whole control plane
type Settings struct {
	Enabled        bool   `yaml:"enabled"`
	Port           int    `yaml:"port"`
	Token          string `yaml:"token"`
	DataRoot       string `yaml:"dataRoot"`
	EngineEndpoint string `yaml:"engineEndpoint"`
	AllowedOrigin  string `yaml:"allowedOrigin"`

	SweepIntervalSec  int     `yaml:"sweepIntervalSec"`
	MaxSessionMinutes float64 `yaml:"maxSessionMinutes"`
	MaxIdleMinutes    float64 `yaml:"maxIdleMinutes"`

	RateLimitPerHour int `yaml:"rateLimitPerHour"`
	RateLimitBurst   int `yaml:"rateLimitBurst"`
}

// Defaults returns the settings used when no file or overrides exist
func Defaults() Settings {
	return Settings{
		Enabled:           true,
		Port:              8080,
		DataRoot:          "./storage/browser-agent",
		EngineEndpoint:    "http://127.0.0.1:9222",
		AllowedOrigin:     "http://localhost:5173",
		SweepIntervalSec:  60,
		MaxSessionMinutes: 60,
		MaxIdleMinutes:    15,
		RateLimitPerHour:  1000,
		RateLimitBurst:    50,
	}
}

// Load reads settings from the YAML file at path (missing file is fine) and
// applies environment overrides on top.
func Load(path string) (Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return s, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, fmt.Errorf("failed to parse settings file %s: %w", path, err)
			}
		}
	}

	applyEnv(&s)
	return s, nil
}

func applyEnv(s *Settings) {
	if v, ok := os.LookupEnv("BROWSER_AGENT_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.Port = n
		}
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_TOKEN"); ok {
		s.Token = v
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_DATA_ROOT"); ok {
		s.DataRoot = v
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_ENGINE_ENDPOINT"); ok {
		s.EngineEndpoint = v
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_ALLOWED_ORIGIN"); ok {
		s.AllowedOrigin = v
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_MAX_SESSION_MINUTES"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.MaxSessionMinutes = f
		}
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_MAX_IDLE_MINUTES"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.MaxIdleMinutes = f
		}
	}
	if v, ok := os.LookupEnv("BROWSER_AGENT_SWEEP_INTERVAL_SEC"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.SweepIntervalSec = n
		}
	}
}

// MaxSessionDuration is the duration cap; zero disables the check
func (s Settings) MaxSessionDuration() time.Duration {
	return time.Duration(s.MaxSessionMinutes * float64(time.Minute))
}

// MaxIdleDuration is the idle cap; zero disables the check
func (s Settings) MaxIdleDuration() time.Duration {
	return time.Duration(s.MaxIdleMinutes * float64(time.Minute))
}

// SweepInterval is the pause between sweep passes
func (s Settings) SweepInterval() time.Duration {
	if s.SweepIntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(s.SweepIntervalSec) * time.Second
}

// EnsureDataRoot creates the persisted layout under the data root
func (s Settings) EnsureDataRoot() error {
	for _, sub := range []string{"logs", "meta", "sessions"} {
		if err := os.MkdirAll(filepath.Join(s.DataRoot, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	return nil
}
