package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ai-finance-coach/backend/internal/config"
)

func TestSplitMessages(t *testing.T) {
	system, rest := splitMessages([]Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "  hello  "},
		{Role: "model", Content: "hi"},
		{Role: "user", Content: "   "},
		{Role: "SYSTEM", Content: "json only"},
	})

	assert.Equal(t, "be brief\n\njson only", system)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	}, rest)
}

func TestGeminiPromptOrder(t *testing.T) {
	prompt := geminiPrompt("system text", []Message{{Role: RoleUser, Content: "question"}})
	assert.Equal(t, "system text\n\nquestion", prompt)
}

func TestGroqClientChat(t *testing.T) {
	var received groqChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	client := NewGroqClient("secret", server.URL+"/", "llama", time.Second, 0)
	content, raw, err := client.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "json only"},
		{Role: RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, content)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "llama", received.Model)
	assert.Equal(t, defaultMaxTokens, received.MaxTokens)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, RoleSystem, received.Messages[0].Role)
}

func TestGroqClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewGroqClient("secret", server.URL, "llama", time.Second, 100)
	_, raw, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.NotEmpty(t, raw)
}

func TestGroqClientMissingKey(t *testing.T) {
	client := NewGroqClient("", "http://localhost", "llama", time.Second, 0)
	_, _, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.AIConfig{Provider: config.ProviderGemini, APIKey: config.PlaceholderAPIKey})
	assert.ErrorIs(t, err, ErrNotConfigured)

	client, err := NewClient(context.Background(), config.AIConfig{Provider: config.ProviderGroq, APIKey: "k", BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.IsType(t, &GroqClient{}, client)

	client, err = NewClient(context.Background(), config.AIConfig{Provider: config.ProviderAnthropic, APIKey: "k", Model: "claude"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, client)

	_, err = NewClient(context.Background(), config.AIConfig{Provider: "openai", APIKey: "k"})
	assert.Error(t, err)
}

func TestSetupWithoutKeyKeepsProviderInfo(t *testing.T) {
	pipeline, cleanup, err := Setup(context.Background(), config.AIConfig{
		Provider:   config.ProviderGemini,
		Model:      "gemini-1.5-flash",
		SessionTTL: time.Minute,
	})
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, pipeline.Available())
	assert.Equal(t, Info{Provider: config.ProviderGemini, Model: "gemini-1.5-flash"}, pipeline.Info())
}

func TestSetupWithKey(t *testing.T) {
	pipeline, cleanup, err := Setup(context.Background(), config.AIConfig{
		Provider:   config.ProviderGroq,
		APIKey:     "k",
		BaseURL:    "http://localhost",
		Model:      "llama",
		SessionTTL: time.Minute,
	})
	require.NoError(t, err)
	defer cleanup()

	assert.True(t, pipeline.Available())
}
