package llm

import (
	"context"
	"strings"

	"biasaudit/internal/config"
	"biasaudit/internal/errors"
	"biasaudit/ports"
)

// NewClient selects the provider named in cfg. Without an API key the
// returned client fails every call and the dashboard keeps working.
func NewClient(cfg config.LLMConfig) ports.LLMClient {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &unavailableClient{provider: cfg.Provider, model: cfg.Model}
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens)
	default:
		return &OpenAIClient{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			ModelName: cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		}
	}
}

type unavailableClient struct {
	provider string
	model    string
}

func (c *unavailableClient) Provider() string { return c.provider }
func (c *unavailableClient) Model() string    { return c.model }

func (c *unavailableClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.ConfigInvalid("no API key configured for provider " + c.provider)
}
