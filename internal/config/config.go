package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultModel          = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens      = 4096
	DefaultTemperature    = 0.7
	DefaultMaxIterations  = 8
	DefaultTimeoutSeconds = 60
	DefaultToolTimeout    = 15
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8000
	DefaultBufSize        = 100
	DefaultSearchResults  = 5
	DefaultUserAgent      = "PlanIT/1.0"
	DefaultGeocodeURL     = "https://nominatim.openstreetmap.org/search"
	DefaultWeatherURL     = "https://api.open-meteo.com/v1/forecast"
	DefaultSearchURL      = "https://api.duckduckgo.com/"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

type Config struct {
	Agent     AgentConfig     `json:"agent"`
	Provider  ProviderConfig  `json:"provider"`
	Channels  ChannelsConfig  `json:"channels"`
	Gateway   GatewayConfig   `json:"gateway"`
	Tools     ToolsConfig     `json:"tools"`
	Knowledge KnowledgeConfig `json:"knowledge"`
	Metrics   MetricsConfig   `json:"metrics"`
}

type AgentConfig struct {
	Workspace      string  `json:"workspace"`
	Model          string  `json:"model"`
	MaxTokens      int     `json:"maxTokens"`
	Temperature    float64 `json:"temperature"`
	MaxIterations  int     `json:"maxIterations"`
	TimeoutSeconds int     `json:"timeoutSeconds"`
}

type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "anthropic" (default), "openai", "groq", "gemini" or "mock"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	WebUI    WebUIConfig    `json:"webui"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

type WebUIConfig struct {
	Enabled   bool     `json:"enabled"`
	AllowFrom []string `json:"allowFrom"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type ToolsConfig struct {
	TimeoutSeconds int    `json:"timeoutSeconds"`
	GeocodeURL     string `json:"geocodeUrl"`
	WeatherURL     string `json:"weatherUrl"` // empty selects offline seasonal estimates
	SearchURL      string `json:"searchUrl"`
	SearchResults  int    `json:"searchResults"`
	UserAgent      string `json:"userAgent"`
}

type KnowledgeConfig struct {
	DBPath string `json:"dbPath,omitempty"`
	Dir    string `json:"dir,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Agent: AgentConfig{
			Workspace:      filepath.Join(home, ".planit", "workspace"),
			Model:          DefaultModel,
			MaxTokens:      DefaultMaxTokens,
			Temperature:    DefaultTemperature,
			MaxIterations:  DefaultMaxIterations,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Provider: ProviderConfig{},
		Channels: ChannelsConfig{
			WebUI: WebUIConfig{Enabled: true},
		},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Tools: ToolsConfig{
			TimeoutSeconds: DefaultToolTimeout,
			GeocodeURL:     DefaultGeocodeURL,
			WeatherURL:     DefaultWeatherURL,
			SearchURL:      DefaultSearchURL,
			SearchResults:  DefaultSearchResults,
			UserAgent:      DefaultUserAgent,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".planit")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// KnowledgeDBPath resolves the knowledge index location.
func (c *Config) KnowledgeDBPath() string {
	if p := strings.TrimSpace(c.Knowledge.DBPath); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "data", "knowledge.db")
}

// KnowledgeDir resolves the directory of user-provided knowledge documents.
func (c *Config) KnowledgeDir() string {
	if d := strings.TrimSpace(c.Knowledge.Dir); d != "" {
		return d
	}
	return filepath.Join(c.Agent.Workspace, "knowledge")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("PLANIT_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = ProviderOpenAI
		}
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = ProviderGroq
		}
	}
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(name); key != "" && cfg.Provider.APIKey == "" {
			cfg.Provider.APIKey = key
			if cfg.Provider.Type == "" {
				cfg.Provider.Type = ProviderGemini
			}
		}
	}
	if provider := os.Getenv("PLANIT_PROVIDER"); provider != "" {
		cfg.Provider.Type = strings.ToLower(provider)
	}
	if url := os.Getenv("PLANIT_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("PLANIT_MODEL"); model != "" {
		cfg.Agent.Model = model
	}
	if n := os.Getenv("PLANIT_MAX_ITERATIONS"); n != "" {
		if parsed, err := strconv.Atoi(n); err == nil {
			cfg.Agent.MaxIterations = parsed
		}
	}
	if temp := os.Getenv("PLANIT_TEMPERATURE"); temp != "" {
		if parsed, err := strconv.ParseFloat(temp, 64); err == nil {
			cfg.Agent.Temperature = parsed
		}
	}
	if token := os.Getenv("PLANIT_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if dbPath := os.Getenv("PLANIT_KNOWLEDGE_DB_PATH"); dbPath != "" {
		cfg.Knowledge.DBPath = dbPath
	}
	if port := os.Getenv("PLANIT_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Gateway.Port = parsed
		}
	}
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Agent.Workspace == "" {
		cfg.Agent.Workspace = def.Agent.Workspace
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = def.Agent.Model
	}
	if cfg.Agent.MaxTokens <= 0 {
		cfg.Agent.MaxTokens = DefaultMaxTokens
	}
	if cfg.Agent.MaxIterations <= 0 {
		cfg.Agent.MaxIterations = DefaultMaxIterations
	}
	if cfg.Agent.Temperature < 0 || cfg.Agent.Temperature > 1 {
		cfg.Agent.Temperature = DefaultTemperature
	}
	if cfg.Tools.TimeoutSeconds <= 0 {
		cfg.Tools.TimeoutSeconds = DefaultToolTimeout
	}
	if cfg.Tools.SearchResults <= 0 {
		cfg.Tools.SearchResults = DefaultSearchResults
	}
	if cfg.Tools.UserAgent == "" {
		cfg.Tools.UserAgent = DefaultUserAgent
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
