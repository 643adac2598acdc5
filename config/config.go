package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stkdecider/progress"
)

// Config holds all dashboard configuration.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
	Server struct {
		Port        string   `yaml:"port"`
		GinMode     string   `yaml:"gin_mode"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Progress struct {
		IntervalMS    int            `yaml:"interval_ms"`
		RevealDelayMS int            `yaml:"reveal_delay_ms"`
		Steps         progress.Steps `yaml:"steps"`
	} `yaml:"progress"`
	Polygon struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"polygon"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Load reads .env, then the YAML file at path if it exists, then environment
// overrides, then defaults.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("STK_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.GinMode = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Polygon.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Development = b
		}
	}

	// Defaults
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.GinMode == "" {
		cfg.Server.GinMode = "release"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Progress.IntervalMS == 0 {
		cfg.Progress.IntervalMS = 2000
	}
	if cfg.Progress.RevealDelayMS == 0 {
		cfg.Progress.RevealDelayMS = 500
	}
	if len(cfg.Progress.Steps) == 0 {
		cfg.Progress.Steps = progress.DefaultSteps()
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("server.port %q is not a valid port", c.Server.Port)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode must be debug, release or test, got %q", c.Server.GinMode)
	}
	if c.Progress.IntervalMS < 0 || c.Progress.RevealDelayMS < 0 {
		return fmt.Errorf("progress delays must not be negative")
	}
	if err := c.Progress.Steps.Validate(); err != nil {
		return fmt.Errorf("progress.steps: %w", err)
	}
	return nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Progress.IntervalMS) * time.Millisecond
}

func (c *Config) RevealDelay() time.Duration {
	return time.Duration(c.Progress.RevealDelayMS) * time.Millisecond
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
