package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cexll/agentsdk-go/pkg/model"
	"github.com/stellarlinkco/planit/internal/config"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	groqBaseURL   = "https://api.groq.com/openai/v1"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// ErrEmptyResponse reports a provider call that returned no response at all.
var ErrEmptyResponse = errors.New("completion returned no response")

// Turn is one message of the conversation handed to a Backend.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Backend is a whole-response text completion capability. Implementations must
// be safe for concurrent use.
type Backend interface {
	Complete(ctx context.Context, turns []Turn, systemPrompt string, temperature float64) (string, error)
}

// ModelBackend adapts an agentsdk-go model provider to Backend.
type ModelBackend struct {
	provider  model.Provider
	maxTokens int
	timeout   time.Duration
}

func NewModelBackend(provider model.Provider, maxTokens int, timeout time.Duration) *ModelBackend {
	return &ModelBackend{provider: provider, maxTokens: maxTokens, timeout: timeout}
}

func (b *ModelBackend) Complete(ctx context.Context, turns []Turn, systemPrompt string, temperature float64) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	m, err := b.provider.Model(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve model: %w", err)
	}

	msgs := make([]model.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, model.Message{Role: t.Role, Content: t.Content})
	}
	temp := temperature
	resp, err := m.Complete(ctx, model.Request{
		Messages:    msgs,
		System:      systemPrompt,
		Temperature: &temp,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	// A blank reply is still an answer; callers decide what it means.
	return resp.Message.TextContent(), nil
}

// NewBackend builds the backend selected by cfg.Provider. An empty provider type
// without an API key selects the mock backend so the assistant runs offline.
func NewBackend(cfg *config.Config) (Backend, error) {
	timeout := time.Duration(cfg.Agent.TimeoutSeconds) * time.Second

	providerType := strings.ToLower(strings.TrimSpace(cfg.Provider.Type))
	if providerType == "" && cfg.Provider.APIKey == "" {
		providerType = config.ProviderMock
	}

	var provider model.Provider
	switch providerType {
	case config.ProviderMock:
		return NewMockBackend(), nil
	case config.ProviderOpenAI, config.ProviderGroq, config.ProviderGemini:
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("API key not set for provider %q. Run 'planit onboard' or set PLANIT_API_KEY", providerType)
		}
		baseURL := cfg.Provider.BaseURL
		if baseURL == "" {
			switch providerType {
			case config.ProviderGroq:
				baseURL = groqBaseURL
			case config.ProviderGemini:
				baseURL = geminiBaseURL
			}
		}
		provider = &model.OpenAIProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   baseURL,
			ModelName: cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}
	case "", config.ProviderAnthropic:
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("API key not set. Run 'planit onboard' or set PLANIT_API_KEY / ANTHROPIC_API_KEY")
		}
		provider = &model.AnthropicProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Provider.Type)
	}

	return NewModelBackend(provider, cfg.Agent.MaxTokens, timeout), nil
}
