package ai

import (
	"context"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	defaultMaxTokens   = 4096
	defaultTemperature = 0.2
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client отправляет переписку в LLM и возвращает текст ответа и сырой ответ API.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, []byte, error)
}

func resolveMaxTokens(value int) int {
	if value > 0 {
		return value
	}

	return defaultMaxTokens
}

// splitMessages отделяет системные инструкции от остальной переписки.
func splitMessages(messages []Message) (string, []Message) {
	system := make([]string, 0, 1)
	rest := make([]Message, 0, len(messages))

	for _, message := range messages {
		text := strings.TrimSpace(message.Content)
		if text == "" {
			continue
		}

		if strings.EqualFold(strings.TrimSpace(message.Role), RoleSystem) {
			system = append(system, text)
			continue
		}
		rest = append(rest, Message{Role: normalizeRole(message.Role), Content: text})
	}

	return strings.Join(system, "\n\n"), rest
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAssistant, "model":
		return RoleAssistant
	default:
		return RoleUser
	}
}
