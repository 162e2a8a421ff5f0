package ai

import (
	"context"
	"time"
)

// AuditRecord описывает один вызов LLM внутри конвейера.
type AuditRecord struct {
	SessionID string
	Agent     string
	Provider  string
	Model     string
	Prompt    string
	Response  []byte
	Err       error
	Duration  time.Duration
}

// AuditLog сохраняет историю вызовов LLM. Ошибки записи конвейер игнорирует.
type AuditLog interface {
	RecordAIRequest(ctx context.Context, record AuditRecord) error
}
