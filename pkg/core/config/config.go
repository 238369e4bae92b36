// Package config loads reportviz settings from config/reportviz.yaml, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"agentic_report/pkg/core/agent"
	"agentic_report/pkg/core/cards"
	"agentic_report/pkg/core/progress"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "config/reportviz.yaml"

// Environment overrides.
const (
	EnvAgentBaseURL = "AGENT_BASE_URL"
	EnvAgentTimeout = "AGENT_TIMEOUT"
	EnvMaxCards     = "REPORTVIZ_MAX_CARDS"
)

type Config struct {
	Agent    agent.Config   `yaml:"agent"`
	Cards    CardsConfig    `yaml:"cards"`
	Render   RenderConfig   `yaml:"render"`
	Progress ProgressConfig `yaml:"progress"`
}

type CardsConfig struct {
	MaxCards     int      `yaml:"max_cards"`
	HiddenTitles []string `yaml:"hidden_titles"`
}

type RenderConfig struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

type ProgressConfig struct {
	Interval time.Duration `yaml:"interval"`
	Stages   []string      `yaml:"stages"`
}

// Default returns the built-in settings.
func Default() Config {
	rc := cards.DefaultReconcilerConfig()
	return Config{
		Agent: agent.Config{
			BaseURL: "http://localhost:8000",
			Timeout: agent.DefaultTimeout,
		},
		Cards: CardsConfig{
			MaxCards:     cards.DefaultCapacity,
			HiddenTitles: []string{cards.DefaultHiddenTitle},
		},
		Render:   RenderConfig{Attempts: rc.Attempts, Interval: rc.Interval},
		Progress: ProgressConfig{Interval: progress.DefaultInterval, Stages: progress.DefaultStages},
	}
}

// Load reads path (DefaultPath when empty) over the defaults. A missing file
// is not an error; a malformed one is. A .env file in the working directory is
// loaded first if present, and environment variables win over the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("CONFIG_PARSE_ERROR: %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, fmt.Errorf("CONFIG_READ_ERROR: %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		cfg.Agent.BaseURL = v
	}
	if v := os.Getenv(EnvAgentTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CONFIG_ENV_ERROR: %s=%q: %w", EnvAgentTimeout, v, err)
		}
		cfg.Agent.Timeout = d
	}
	if v := os.Getenv(EnvMaxCards); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("CONFIG_ENV_ERROR: %s=%q must be a positive integer", EnvMaxCards, v)
		}
		cfg.Cards.MaxCards = n
	}
	return nil
}

// ReconcilerConfig converts the render settings.
func (c Config) ReconcilerConfig() cards.ReconcilerConfig {
	return cards.ReconcilerConfig{Attempts: c.Render.Attempts, Interval: c.Render.Interval}
}
