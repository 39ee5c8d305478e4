package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PLOTLOOM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("default_model: llama3-8b-8192\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DefaultModel != "llama3-8b-8192" {
		t.Errorf("config file value not applied, got %q", c.DefaultModel)
	}
	if c.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("unexpected base_url default: %q", c.BaseURL)
	}
	if c.MaxTokens != 4096 || c.Temperature != 0.3 {
		t.Errorf("generation defaults wrong: max_tokens=%d temp=%v", c.MaxTokens, c.Temperature)
	}
	if c.HTTPTimeoutSec != 60 || c.RetryMaxAttempts != 3 {
		t.Errorf("http defaults wrong: timeout=%d retries=%d", c.HTTPTimeoutSec, c.RetryMaxAttempts)
	}
	if c.SessionsDir == "" {
		t.Error("sessions_dir should get a home-relative default")
	}
}

func TestLoadEnvAPIKey(t *testing.T) {
	t.Setenv("PLOTLOOM_API_KEY", "pl_env_key")
	t.Setenv("GROQ_API_KEY", "gsk_other")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.APIKey != "pl_env_key" {
		t.Errorf("PLOTLOOM_API_KEY not honored, got %q", c.APIKey)
	}
}

func TestLoadEnvSessionsDir(t *testing.T) {
	t.Setenv("PLOTLOOM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("PLOTLOOM_SESSIONS_DIR", "/tmp/plotloom-sessions")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SessionsDir != "/tmp/plotloom-sessions" {
		t.Errorf("PLOTLOOM_SESSIONS_DIR not honored, got %q", c.SessionsDir)
	}
}

func TestLoadGroqEnvFallback(t *testing.T) {
	t.Setenv("PLOTLOOM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.APIKey != "gsk_test" {
		t.Errorf("GROQ_API_KEY fallback not applied, got %q", c.APIKey)
	}
}

func TestLoadModelCatalogEntries(t *testing.T) {
	t.Setenv("PLOTLOOM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	body := "models:\n  qwen2.5-coder:\n    context_tokens: 32768\n    notes: local\n"
	if err := os.WriteFile(cfgFile, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, ok := c.Models["qwen2.5-coder"]
	if !ok {
		t.Fatalf("models entry missing: %+v", c.Models)
	}
	if m.ContextTokens != 32768 || m.Notes != "local" {
		t.Errorf("models entry wrong: %+v", m)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("PLOTLOOM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{DefaultModel: "llama3-70b-8192", MaxTokens: 2048, ChartWidth: 800}
	if err := Save(in, cfgFile); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.DefaultModel != in.DefaultModel || out.MaxTokens != in.MaxTokens || out.ChartWidth != in.ChartWidth {
		t.Errorf("round-trip mismatch: %+v", out)
	}
}
