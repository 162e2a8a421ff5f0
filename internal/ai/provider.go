package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"example.com/ai-finance-coach/backend/internal/config"
)

// ErrNotConfigured означает, что API-ключ провайдера не задан.
var ErrNotConfigured = errors.New("ai api key is not configured")

// NewClient создает клиента выбранного провайдера (AI_PROVIDER).
func NewClient(ctx context.Context, cfg config.AIConfig) (Client, error) {
	if !cfg.KeyConfigured() {
		return nil, ErrNotConfigured
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens)
	case config.ProviderGroq:
		return NewGroqClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

const maxSessions = 1000

// Setup собирает конвейер агентов из конфигурации. Без ключа конвейер создается
// недоступным, но сохраняет сведения о провайдере для /service-status.
// Возвращаемая функция освобождает клиента и хранилище сессий.
func Setup(ctx context.Context, cfg config.AIConfig, opts ...Option) (*Pipeline, func(), error) {
	info := Info{Provider: cfg.Provider, Model: cfg.Model, KeyConfigured: cfg.KeyConfigured()}

	client, err := NewClient(ctx, cfg)
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		return nil, nil, err
	}

	sessions, err := NewSessionStore(maxSessions, cfg.SessionTTL)
	if err != nil {
		closeClient(client)
		return nil, nil, err
	}

	cleanup := func() {
		closeClient(client)
		sessions.Close()
	}

	return NewPipeline(client, sessions, info, opts...), cleanup, nil
}

func closeClient(client Client) {
	if closer, ok := client.(io.Closer); ok {
		_ = closer.Close()
	}
}
