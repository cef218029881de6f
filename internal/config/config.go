// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout bounds non-streaming calls (upload, cleanup). Streaming
	// requests run on the caller's context only.
	Timeout time.Duration `yaml:"timeout"`
	// HistoryWindow caps how many prior messages are sent with each
	// request. 0 sends the full transcript.
	HistoryWindow int `yaml:"history_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type MetricsConfig struct {
	Port int `yaml:"port"` // 0 disables the debug metrics server
}

type UIConfig struct {
	Greeting string `yaml:"greeting"` // optional seeded assistant greeting
	Theme    string `yaml:"theme"`    // glamour style: dark|light|notty
}

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	UI      UIConfig      `yaml:"ui"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case dev && errors.Is(err, os.ErrNotExist):
		// Dev mode runs standalone; the config file is optional.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// defaults
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.HistoryWindow < 0 {
		cfg.Backend.HistoryWindow = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "dark"
	}

	// Minimal validation. The scripted dev backend never dials out, so
	// base_url is only required for real runs.
	if !dev {
		if cfg.Backend.BaseURL == "" {
			return nil, errors.New("backend.base_url is required")
		}
		if _, err := url.Parse(cfg.Backend.BaseURL); err != nil {
			return nil, fmt.Errorf("backend.base_url: %w", err)
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
