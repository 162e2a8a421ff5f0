package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient вызывает Gemini через официальный SDK google/generative-ai-go.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiClient создает клиент Gemini с заданными параметрами.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, maxTokens int) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is missing")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	generative := client.GenerativeModel(model)
	generative.SetTemperature(defaultTemperature)
	generative.SetMaxOutputTokens(int32(resolveMaxTokens(maxTokens)))

	return &GeminiClient{
		client:  client,
		model:   generative,
		timeout: timeout,
	}, nil
}

// Chat отправляет сообщения в Gemini и возвращает текст ответа и сырой ответ API.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	system, rest := splitMessages(messages)
	if len(rest) == 0 {
		return "", nil, errors.New("gemini request has no user content")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	response, err := c.model.GenerateContent(ctx, genai.Text(geminiPrompt(system, rest)))
	if err != nil {
		return "", nil, fmt.Errorf("gemini api error: %w", err)
	}

	raw, _ := json.Marshal(response)

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", raw, errors.New("gemini response missing candidates")
	}

	var builder strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	if builder.Len() == 0 {
		return "", raw, errors.New("gemini response missing content")
	}

	return builder.String(), raw, nil
}

// Close освобождает соединение SDK.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// geminiPrompt склеивает переписку в один запрос: системный текст идет первым.
func geminiPrompt(system string, messages []Message) string {
	parts := make([]string, 0, len(messages)+1)
	if system != "" {
		parts = append(parts, system)
	}

	for _, message := range messages {
		if message.Role == RoleAssistant {
			parts = append(parts, "Previous answer:\n"+message.Content)
			continue
		}
		parts = append(parts, message.Content)
	}

	return strings.Join(parts, "\n\n")
}
