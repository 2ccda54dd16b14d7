package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"biasaudit/internal/errors"

	"github.com/tidwall/gjson"
)

// NoResponse is returned when a provider answers without any text.
const NoResponse = "No response."

// MockLLMClient is a mock LLM client for testing
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors

	mu      sync.Mutex
	prompts []string
}

func (m *MockLLMClient) Provider() string { return "mock" }
func (m *MockLLMClient) Model() string    { return "mock" }

func (m *MockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	return m.Response, nil
}

// Prompts returns every prompt received so far.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (Groq by default).
type OpenAIClient struct {
	APIKey    string
	BaseURL   string
	ModelName string
	MaxTokens int
	Timeout   time.Duration
}

func (c *OpenAIClient) Provider() string { return "openai" }
func (c *OpenAIClient) Model() string    { return c.ModelName }

// Complete posts prompt as a single user message. The body is read whatever
// the status code, so provider error messages come back as text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens,omitempty"`
		Messages  []msg  `json:"messages"`
	}
	raw, err := json.Marshal(reqBody{
		Model:     c.ModelName,
		MaxTokens: c.MaxTokens,
		Messages:  []msg{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: c.Timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", errors.ExternalServiceError("openai", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.ExternalServiceError("openai", fmt.Errorf("read response: %w", err))
	}
	if !gjson.ValidBytes(respRaw) {
		return "", errors.ExternalServiceError("openai", fmt.Errorf("http %d: response is not JSON", resp.StatusCode))
	}
	return extractText(respRaw), nil
}

func extractText(raw []byte) string {
	if content := gjson.GetBytes(raw, "choices.0.message.content").String(); content != "" {
		return content
	}
	if message := gjson.GetBytes(raw, "error.message").String(); message != "" {
		return message
	}
	return NoResponse
}
