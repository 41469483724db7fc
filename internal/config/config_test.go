package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg, _ := Load()
	if cfg.Addr != ":8000" {
		t.Errorf("Addr = %q, want :8000", cfg.Addr)
	}
	if cfg.OutputDir != "training_plans" {
		t.Errorf("OutputDir = %q, want training_plans", cfg.OutputDir)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, ProviderOpenAI)
	}
	if cfg.LLMModel != "gpt-4o" {
		t.Errorf("LLMModel = %q, want gpt-4o", cfg.LLMModel)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", cfg.Temperature)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLANFORGE_ADDR", ":9999")
	t.Setenv("PLANFORGE_LLM_PROVIDER", "ollama")
	t.Setenv("PLANFORGE_TEMPERATURE", "0.7")
	t.Setenv("PLANFORGE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.LLMProvider != ProviderOllama {
		t.Errorf("LLMProvider = %q, want ollama", cfg.LLMProvider)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadYAMLFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planforge.yaml")
	content := []byte(`
addr: ":7777"
output_dir: plans
llm:
  provider: anthropic
  model: claude-sonnet-4-5
temperature: 0.5
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PLANFORGE_CONFIG", path)
	// Env still wins over the file.
	t.Setenv("PLANFORGE_LLM_PROVIDER", "openai")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Errorf("Addr = %q, want :7777", cfg.Addr)
	}
	if cfg.OutputDir != "plans" {
		t.Errorf("OutputDir = %q, want plans", cfg.OutputDir)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %q, env should override file", cfg.LLMProvider)
	}
	if cfg.LLMModel != "claude-sonnet-4-5" {
		t.Errorf("LLMModel = %q, want file value", cfg.LLMModel)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Temperature = %v, want 0.5", cfg.Temperature)
	}
}

func TestLoadBadTemperature(t *testing.T) {
	t.Setenv("PLANFORGE_TEMPERATURE", "warm")
	if _, err := Load(); err == nil {
		t.Error("Load() accepted non-numeric temperature")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
