// Package config loads the assistant configuration: defaults, then an
// optional config.yaml in the data directory, then CHITRA_* environment
// overrides. The LLM endpoint and model are configuration only; nothing
// in the code names a specific model.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full assistant configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`

	// Conversation settings
	MaxHistoryTurns int `yaml:"max_history_turns"` // sliding window, in turns (2 messages each)

	// Proactive loop settings
	ProactiveIntervalSec int `yaml:"proactive_interval_seconds"`

	LLM LLMConfig `yaml:"llm"`
}

// LLMConfig selects and configures the model endpoint.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // "ollama" or "openai"
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key,omitempty"` // openai-compatible endpoints only
	TimeoutSec int    `yaml:"timeout_seconds"`
}

// Timeout is the bounded wait for one model round trip.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSec) * time.Second
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:              DefaultDataDir(),
		MaxHistoryTurns:      10,
		ProactiveIntervalSec: 60,
		LLM: LLMConfig{
			Provider:   "ollama",
			BaseURL:    "http://localhost:11434",
			Model:      "llama3.1:8b",
			TimeoutSec: 120,
		},
	}
}

// DefaultDataDir returns the default data directory (~/.chitra).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chitra"
	}
	return filepath.Join(home, ".chitra")
}

// Load loads config from <data_dir>/config.yaml and applies env overrides.
// A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if dir := os.Getenv("CHITRA_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "config.yaml"))
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFrom loads config from a specific path, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv("CHITRA_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if v := os.Getenv("CHITRA_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("CHITRA_LLM_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("CHITRA_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("CHITRA_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("CHITRA_HISTORY_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxHistoryTurns = n
		}
	}
	if v := os.Getenv("CHITRA_PROACTIVE_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ProactiveIntervalSec = n
		}
	}
	c.LLM.APIKey = os.ExpandEnv(c.LLM.APIKey)
	c.LLM.BaseURL = os.ExpandEnv(c.LLM.BaseURL)
}

// ProactiveInterval is the delay between proactive ticks.
func (c *Config) ProactiveInterval() time.Duration {
	return time.Duration(c.ProactiveIntervalSec) * time.Second
}

// Save writes the config to <data_dir>/config.yaml.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.DataDir, "config.yaml"), data, 0600)
}

// DBPath returns the path to the SQLite database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "data", "chitra.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0700)
}
