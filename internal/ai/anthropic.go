package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient вызывает Claude Messages API через anthropic-sdk-go.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient создает клиент Anthropic с заданными параметрами.
func NewAnthropicClient(apiKey, model string, timeout time.Duration, maxTokens int) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key is missing")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Chat отправляет сообщения в Claude и возвращает текст ответа и сырой ответ API.
func (c *AnthropicClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	system, rest := splitMessages(messages)
	if len(rest) == 0 {
		return "", nil, errors.New("anthropic request has no user content")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(resolveMaxTokens(c.maxTokens)),
		Messages:    anthropicMessages(rest),
		Temperature: anthropic.Float(defaultTemperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", nil, fmt.Errorf("anthropic api error: %w", err)
	}

	raw := []byte(message.RawJSON())

	var builder strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	if builder.Len() == 0 {
		return "", raw, errors.New("anthropic response missing text content")
	}

	return builder.String(), raw, nil
}

func anthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, message := range messages {
		block := anthropic.NewTextBlock(message.Content)
		if message.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}
