package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.MaxHistoryTurns != 10 {
		t.Errorf("max_history_turns = %d, want 10", c.MaxHistoryTurns)
	}
	if c.ProactiveInterval() != time.Minute {
		t.Errorf("proactive interval = %s, want 1m", c.ProactiveInterval())
	}
	if c.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, want ollama", c.LLM.Provider)
	}
	if c.LLM.Timeout() != 2*time.Minute {
		t.Errorf("llm timeout = %s, want 2m", c.LLM.Timeout())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
data_dir: ` + dir + `
max_history_turns: 4
proactive_interval_seconds: 300
llm:
  provider: openai
  base_url: https://api.example.com/v1
  model: gpt-4o-mini
  timeout_seconds: 30
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if c.MaxHistoryTurns != 4 {
		t.Errorf("max_history_turns = %d, want 4", c.MaxHistoryTurns)
	}
	if c.ProactiveInterval() != 5*time.Minute {
		t.Errorf("proactive interval = %s, want 5m", c.ProactiveInterval())
	}
	if c.LLM.Model != "gpt-4o-mini" || c.LLM.Provider != "openai" {
		t.Errorf("llm = %+v", c.LLM)
	}
	if c.LLM.Timeout() != 30*time.Second {
		t.Errorf("llm timeout = %s, want 30s", c.LLM.Timeout())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHITRA_DATA_DIR", "/tmp/chitra-test")
	t.Setenv("CHITRA_LLM_MODEL", "llama3.2:3b")
	t.Setenv("CHITRA_HISTORY_TURNS", "3")
	t.Setenv("CHITRA_PROACTIVE_INTERVAL", "bogus")

	c, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if c.DataDir != "/tmp/chitra-test" {
		t.Errorf("data_dir = %q", c.DataDir)
	}
	if c.LLM.Model != "llama3.2:3b" {
		t.Errorf("model = %q", c.LLM.Model)
	}
	if c.MaxHistoryTurns != 3 {
		t.Errorf("max_history_turns = %d, want 3", c.MaxHistoryTurns)
	}
	// Bad numbers keep the default.
	if c.ProactiveIntervalSec != 60 {
		t.Errorf("proactive_interval_seconds = %d, want default 60", c.ProactiveIntervalSec)
	}
}

func TestAPIKeyExpansion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
llm:
  provider: openai
  api_key: $TEST_CHITRA_KEY
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_CHITRA_KEY", "sk-expanded")

	c, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.LLM.APIKey != "sk-expanded" {
		t.Errorf("api_key = %q, want expanded env value", c.LLM.APIKey)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := DefaultConfig()
	c.DataDir = dir
	c.MaxHistoryTurns = 7

	if err := c.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadFrom(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.MaxHistoryTurns != 7 {
		t.Errorf("round trip lost max_history_turns: %d", loaded.MaxHistoryTurns)
	}
}

func TestDBPath(t *testing.T) {
	c := &Config{DataDir: "/srv/chitra"}
	if got := c.DBPath(); got != filepath.Join("/srv/chitra", "data", "chitra.db") {
		t.Errorf("db path = %q", got)
	}
}
