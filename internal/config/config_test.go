package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points every lookup at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{
		"LINGOQUIZ_API_URL", "LINGOQUIZ_TOKEN", "LINGOQUIZ_DB", "LINGOQUIZ_SUCCESS_CODE",
		"LINGOQUIZ_API_TIMEOUT", "LINGOQUIZ_DEBUG", "LINGOQUIZ_SAMPLE_SOURCE", "LINGOQUIZ_LLM_PROVIDER",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.SuccessCode != 200 || cfg.Practice.SampleSource != "api" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "lq.yaml")
	yml := `
api:
  base_url: https://learn.example.com/api
  success_code: 0
  timeout: 10s
practice:
  level: hard
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINGOQUIZ_SUCCESS_CODE", "201")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "https://learn.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.API.SuccessCode != 201 {
		t.Errorf("SuccessCode = %d, want env override 201", cfg.API.SuccessCode)
	}
	if cfg.Practice.Level != "hard" {
		t.Errorf("Level = %q", cfg.Practice.Level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("LINGOQUIZ_TOKEN")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LINGOQUIZ_TOKEN=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("LINGOQUIZ_TOKEN") })

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auth.Token != "from-dotenv" {
		t.Errorf("Token = %q", cfg.Auth.Token)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, "BaseURL"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "Level"},
		{"llm source without provider", func(c *Config) { c.Practice.SampleSource = "llm" }, "no LLM provider"},
		{"llm source with mock", func(c *Config) {
			c.Practice.SampleSource = "llm"
			c.LLM.Provider = "mock"
		}, ""},
		{"provider without key", func(c *Config) { c.LLM.Provider = "anthropic" }, "API key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
