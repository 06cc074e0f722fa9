package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PLANIT_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GROQ_API_KEY",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "PLANIT_PROVIDER", "PLANIT_BASE_URL",
		"PLANIT_MODEL", "PLANIT_MAX_ITERATIONS", "PLANIT_TEMPERATURE",
		"PLANIT_TELEGRAM_TOKEN", "PLANIT_KNOWLEDGE_DB_PATH", "PLANIT_PORT",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, home string, v any) {
	t.Helper()
	dir := filepath.Join(home, ".planit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	var data []byte
	switch raw := v.(type) {
	case string:
		data = []byte(raw)
	default:
		data, _ = json.MarshalIndent(v, "", "  ")
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.Agent.Model != DefaultModel {
		t.Errorf("model = %q, want %q", cfg.Agent.Model, DefaultModel)
	}
	if cfg.Agent.MaxIterations != 8 {
		t.Errorf("maxIterations = %d, want 8", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", cfg.Agent.Temperature)
	}
	if cfg.Gateway.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Gateway.Port)
	}
	if cfg.Tools.TimeoutSeconds != DefaultToolTimeout {
		t.Errorf("tool timeout = %d, want %d", cfg.Tools.TimeoutSeconds, DefaultToolTimeout)
	}
	if !cfg.Channels.WebUI.Enabled {
		t.Error("webui should be enabled by default")
	}
	if cfg.Agent.Workspace == "" {
		t.Error("workspace should not be empty")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Agent.Model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, cfg.Agent.Model)
	}
	if cfg.Provider.APIKey != "" {
		t.Errorf("apiKey = %q, want empty", cfg.Provider.APIKey)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	writeConfig(t, home, map[string]any{
		"agent": map[string]any{
			"model":         "gpt-4o-mini",
			"maxIterations": 4,
			"temperature":   0.2,
		},
		"provider": map[string]any{
			"type":   "openai",
			"apiKey": "sk-test-key",
		},
		"tools": map[string]any{
			"weatherUrl": "",
		},
	})

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Agent.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", cfg.Agent.Model)
	}
	if cfg.Agent.MaxIterations != 4 {
		t.Errorf("maxIterations = %d, want 4", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", cfg.Agent.Temperature)
	}
	if cfg.Provider.Type != ProviderOpenAI || cfg.Provider.APIKey != "sk-test-key" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Tools.WeatherURL != "" {
		t.Errorf("weatherUrl = %q, want empty (offline)", cfg.Tools.WeatherURL)
	}
	if cfg.Tools.GeocodeURL != DefaultGeocodeURL {
		t.Errorf("geocodeUrl = %q, want default", cfg.Tools.GeocodeURL)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name     string
		envKey   string
		envVal   string
		wantKey  string
		wantType string
	}{
		{"PLANIT_API_KEY", "PLANIT_API_KEY", "planit-key", "planit-key", ""},
		{"ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY", "anthropic-key", "anthropic-key", ""},
		{"OPENAI_API_KEY", "OPENAI_API_KEY", "openai-key", "openai-key", ProviderOpenAI},
		{"GROQ_API_KEY", "GROQ_API_KEY", "groq-key", "groq-key", ProviderGroq},
		{"GEMINI_API_KEY", "GEMINI_API_KEY", "gemini-key", "gemini-key", ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig error: %v", err)
			}
			if cfg.Provider.APIKey != tt.wantKey {
				t.Errorf("apiKey = %q, want %q", cfg.Provider.APIKey, tt.wantKey)
			}
			if cfg.Provider.Type != tt.wantType {
				t.Errorf("type = %q, want %q", cfg.Provider.Type, tt.wantType)
			}
		})
	}
}

func TestLoadConfig_EnvPriority(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	t.Setenv("PLANIT_API_KEY", "planit-wins")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-loses")
	t.Setenv("OPENAI_API_KEY", "openai-loses")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Provider.APIKey != "planit-wins" {
		t.Errorf("apiKey = %q, want planit-wins", cfg.Provider.APIKey)
	}
	if cfg.Provider.Type != "" {
		t.Errorf("type = %q, want empty", cfg.Provider.Type)
	}
}

func TestLoadConfig_AgentEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	t.Setenv("PLANIT_PROVIDER", "Mock")
	t.Setenv("PLANIT_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("PLANIT_MAX_ITERATIONS", "3")
	t.Setenv("PLANIT_TEMPERATURE", "0.1")
	t.Setenv("PLANIT_PORT", "9001")
	t.Setenv("PLANIT_TELEGRAM_TOKEN", "test-telegram-token")
	t.Setenv("PLANIT_KNOWLEDGE_DB_PATH", "/tmp/knowledge.db")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Provider.Type != ProviderMock {
		t.Errorf("type = %q, want mock", cfg.Provider.Type)
	}
	if cfg.Agent.Model != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q", cfg.Agent.Model)
	}
	if cfg.Agent.MaxIterations != 3 {
		t.Errorf("maxIterations = %d, want 3", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", cfg.Agent.Temperature)
	}
	if cfg.Gateway.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Gateway.Port)
	}
	if cfg.Channels.Telegram.Token != "test-telegram-token" {
		t.Errorf("telegram token = %q", cfg.Channels.Telegram.Token)
	}
	if cfg.KnowledgeDBPath() != "/tmp/knowledge.db" {
		t.Errorf("knowledge db = %q", cfg.KnowledgeDBPath())
	}
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	writeConfig(t, home, map[string]any{
		"agent": map[string]any{
			"workspace":     "",
			"maxIterations": 0,
			"temperature":   3.5,
		},
		"gateway": map[string]any{"port": 0},
	})

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Agent.Workspace == "" {
		t.Error("workspace should not be empty")
	}
	if cfg.Agent.MaxIterations != DefaultMaxIterations {
		t.Errorf("maxIterations = %d, want %d", cfg.Agent.MaxIterations, DefaultMaxIterations)
	}
	if cfg.Agent.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want %v", cfg.Agent.Temperature, DefaultTemperature)
	}
	if cfg.Gateway.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Gateway.Port, DefaultPort)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)
	writeConfig(t, home, "invalid json")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSaveConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Provider.APIKey = "test-key"
	cfg.Provider.Type = ProviderGroq

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".planit", "config.json"))
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}
	if loaded.Provider.APIKey != "test-key" || loaded.Provider.Type != ProviderGroq {
		t.Errorf("saved provider = %+v", loaded.Provider)
	}
}

func TestKnowledgePaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Agent.Workspace = "/ws"
	if got, want := cfg.KnowledgeDBPath(), filepath.Join(home, ".planit", "data", "knowledge.db"); got != want {
		t.Errorf("KnowledgeDBPath = %q, want %q", got, want)
	}
	if got := cfg.KnowledgeDir(); got != filepath.Join("/ws", "knowledge") {
		t.Errorf("KnowledgeDir = %q", got)
	}

	cfg.Knowledge.Dir = "/docs"
	if got := cfg.KnowledgeDir(); got != "/docs" {
		t.Errorf("KnowledgeDir = %q, want /docs", got)
	}
}
