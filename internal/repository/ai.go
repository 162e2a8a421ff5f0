package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/ai-finance-coach/backend/internal/ai"
)

// AIRepository пишет журнал вызовов LLM в таблицу ai_requests.
type AIRepository struct {
	db *pgxpool.Pool
}

// NewAIRepository создает репозиторий для AI-запросов.
func NewAIRepository(db *pgxpool.Pool) *AIRepository {
	return &AIRepository{db: db}
}

var _ ai.AuditLog = (*AIRepository)(nil)

// RecordAIRequest сохраняет один вызов агента.
func (r *AIRepository) RecordAIRequest(ctx context.Context, record ai.AuditRecord) error {
	var errorMessage *string
	if record.Err != nil {
		msg := record.Err.Error()
		errorMessage = &msg
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_requests
		 (session_id, agent, provider, model, prompt, raw_response, success, error_message, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`,
		record.SessionID,
		record.Agent,
		record.Provider,
		record.Model,
		record.Prompt,
		string(record.Response),
		record.Err == nil,
		errorMessage,
		record.Duration.Milliseconds(),
	)
	return err
}
