package llm

import (
	"context"

	"biasaudit/internal/errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient sends prompts through the Anthropic Messages API.
type AnthropicClient struct {
	client    sdk.Client
	modelName string
	maxTokens int64
}

// NewAnthropicClient builds a client with SDK retries disabled.
func NewAnthropicClient(apiKey, baseURL, model string, maxTokens int) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client:    sdk.NewClient(opts...),
		modelName: model,
		maxTokens: int64(maxTokens),
	}
}

func (c *AnthropicClient) Provider() string { return "anthropic" }
func (c *AnthropicClient) Model() string    { return c.modelName }

// Complete returns the first text block of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.modelName),
		MaxTokens: c.maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", errors.ExternalServiceError("anthropic", err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return NoResponse, nil
}
