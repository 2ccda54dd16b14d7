package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"biasaudit/internal/config"
	"biasaudit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestClient(url string) *OpenAIClient {
	return &OpenAIClient{
		APIKey:    "gsk-test",
		BaseURL:   url + "/",
		ModelName: "llama-3.3-70b-versatile",
		MaxTokens: 1000,
		Timeout:   5 * time.Second,
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
		assert.Equal(t, 1000, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "audit this", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"**Summary**: fair"}}]}`)) //nolint:errcheck
	}))
	defer ts.Close()

	text, err := newOpenAITestClient(ts.URL).Complete(context.Background(), "audit this")
	require.NoError(t, err)
	assert.Equal(t, "**Summary**: fair", text)
}

func TestOpenAIClient_ResponseShapes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"provider error message", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key"}}`, "Invalid API Key"},
		{"empty choices", http.StatusOK, `{"choices":[]}`, NoResponse},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":""}}]}`, NoResponse},
		{"unrelated object", http.StatusOK, `{"id":"x"}`, NoResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer ts.Close()

			text, err := newOpenAITestClient(ts.URL).Complete(context.Background(), "p")
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestOpenAIClient_NonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>")) //nolint:errcheck
	}))
	defer ts.Close()

	_, err := newOpenAITestClient(ts.URL).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
	assert.Contains(t, err.Error(), "http 502")
}

func TestOpenAIClient_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newOpenAITestClient(url).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
}

func TestOpenAIClient_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newOpenAITestClient(ts.URL).Complete(ctx, "p")
	require.Error(t, err)
}

func TestAnthropicClient_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4-5-20250929", req["model"])
		assert.EqualValues(t, 1000, req["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Top disparity: **Black**"},
			},
			"model":       "claude-sonnet-4-5-20250929",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer ts.Close()

	client := NewAnthropicClient("test-key", ts.URL, "claude-sonnet-4-5-20250929", 1000)
	assert.Equal(t, "anthropic", client.Provider())

	text, err := client.Complete(context.Background(), "audit")
	require.NoError(t, err)
	assert.Equal(t, "Top disparity: **Black**", text)
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id": "msg_empty", "type": "message", "role": "assistant",
			"content": []map[string]any{}, "model": "claude-sonnet-4-5-20250929",
			"stop_reason": "end_turn", "usage": map[string]any{"input_tokens": 1, "output_tokens": 0},
		})
	}))
	defer ts.Close()

	text, err := NewAnthropicClient("k", ts.URL, "claude-sonnet-4-5-20250929", 100).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, NoResponse, text)
}

func TestAnthropicClient_APIError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	_, err := NewAnthropicClient("k", ts.URL, "claude-sonnet-4-5-20250929", 100).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
	assert.Equal(t, 1, calls)
}

func TestNewClient(t *testing.T) {
	cfg := config.LLMConfig{
		Provider:  config.ProviderOpenAI,
		BaseURL:   "https://api.groq.com/openai/v1",
		Model:     "llama-3.3-70b-versatile",
		MaxTokens: 1000,
		Timeout:   time.Second,
	}

	missing := NewClient(cfg)
	assert.Equal(t, "openai", missing.Provider())
	_, err := missing.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	cfg.APIKey = "gsk"
	openai, ok := NewClient(cfg).(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "llama-3.3-70b-versatile", openai.Model())

	cfg.Provider = config.ProviderAnthropic
	cfg.Model = "claude-sonnet-4-5-20250929"
	_, ok = NewClient(cfg).(*AnthropicClient)
	assert.True(t, ok)
}

func TestMockLLMClient(t *testing.T) {
	mock := &MockLLMClient{Response: "ok"}
	text, err := mock.Complete(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"first"}, mock.Prompts())
}
