package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"example.com/ai-finance-coach/backend/internal/analysis"
	"example.com/ai-finance-coach/backend/internal/models"
)

const sessionPrefix = "finance_session_"

const (
	keyCategorySpending       = "category_spending"
	keyTotalSpending          = "total_spending"
	keyManualCategorySpending = "manual_category_spending"
	keyTotalManualSpending    = "total_manual_spending"
)

// ErrUnavailable возвращается, когда конвейер не настроен.
var ErrUnavailable = errors.New("ai pipeline is not available")

// StageFunc вызывается перед запуском каждого агента.
type StageFunc func(agent string)

// Info описывает провайдера, стоящего за конвейером.
type Info struct {
	Provider      string
	Model         string
	KeyConfigured bool
}

// Result содержит сырые JSON-разделы, которые вернули агенты.
// Раздел отсутствует, если агент не вернул JSON.
type Result struct {
	SessionID  string
	Sections   map[string]json.RawMessage
	AgentsUsed []string
}

// Pipeline последовательно запускает агентов бюджета, сбережений и долгов.
type Pipeline struct {
	client   Client
	sessions *SessionStore
	audit    AuditLog
	logger   *logrus.Entry
	info     Info
	stages   []Stage
}

type Option func(*Pipeline)

// WithAuditLog включает запись вызовов LLM.
func WithAuditLog(audit AuditLog) Option {
	return func(p *Pipeline) {
		p.audit = audit
	}
}

// WithLogger задает логгер конвейера.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger.WithField("component", "ai_pipeline")
		}
	}
}

// NewPipeline создает конвейер. client может быть nil: тогда конвейер недоступен.
func NewPipeline(client Client, sessions *SessionStore, info Info, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:   client,
		sessions: sessions,
		info:     info,
		stages:   Stages(),
		logger:   logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Available сообщает, можно ли запускать AI-анализ.
func (p *Pipeline) Available() bool {
	return p != nil && p.client != nil && p.sessions != nil && p.info.KeyConfigured
}

// Info возвращает сведения о провайдере.
func (p *Pipeline) Info() Info {
	return p.info
}

// Run выполняет три стадии в рамках одной сессии. Ошибка клиента прерывает прогон;
// ответ без JSON оставляет раздел пустым.
func (p *Pipeline) Run(ctx context.Context, profile models.FinancialProfile, onStage StageFunc) (Result, error) {
	if !p.Available() {
		return Result{}, ErrUnavailable
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return Result{}, fmt.Errorf("encode profile: %w", err)
	}

	sessionID := sessionPrefix + uuid.NewString()
	result := Result{SessionID: sessionID, Sections: make(map[string]json.RawMessage, len(p.stages))}
	logger := p.logger.WithField("session_id", sessionID)

	session, err := p.sessions.Create(sessionID, initialState(profile))
	if err != nil {
		return result, fmt.Errorf("create session: %w", err)
	}
	defer func() {
		if err := p.sessions.Delete(sessionID); err != nil {
			logger.WithError(err).Debug("session cleanup failed")
		}
	}()

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if onStage != nil {
			onStage(stage.Agent)
		}

		messages, err := buildStageMessages(stage, profileJSON, session.Snapshot())
		if err != nil {
			return result, fmt.Errorf("%s: %w", stage.Agent, err)
		}

		started := time.Now()
		content, raw, err := p.client.Chat(ctx, messages)
		p.record(ctx, AuditRecord{
			SessionID: sessionID,
			Agent:     stage.Agent,
			Provider:  p.info.Provider,
			Model:     p.info.Model,
			Prompt:    messages[len(messages)-1].Content,
			Response:  raw,
			Err:       err,
			Duration:  time.Since(started),
		})
		if err != nil {
			return result, fmt.Errorf("%s: %w", stage.Agent, err)
		}
		result.AgentsUsed = append(result.AgentsUsed, stage.Agent)

		payload := extractJSON(content)
		if payload == "" {
			logger.WithField("agent", stage.Agent).Warn("agent reply has no json, section left empty")
			continue
		}

		session.put(stage.OutputKey, json.RawMessage(payload))
	}

	for _, stage := range p.stages {
		value, ok := session.Value(stage.OutputKey)
		if !ok {
			continue
		}
		if payload, ok := value.(json.RawMessage); ok {
			result.Sections[stage.OutputKey] = payload
		}
	}

	logger.WithFields(logrus.Fields{
		"agents":   len(result.AgentsUsed),
		"sections": len(result.Sections),
	}).Info("ai pipeline completed")

	return result, nil
}

func (p *Pipeline) record(ctx context.Context, record AuditRecord) {
	if p.audit == nil {
		return
	}

	if err := p.audit.RecordAIRequest(ctx, record); err != nil {
		p.logger.WithError(err).Warn("failed to record ai request")
	}
}

// initialState кладет в сессию исходный профиль и агрегаты по расходам.
func initialState(profile models.FinancialProfile) map[string]any {
	state := map[string]any{
		"monthly_income":  profile.MonthlyIncome,
		"dependants":      profile.Dependants,
		"transactions":    profile.Transactions,
		"manual_expenses": profile.ManualExpenses,
		"debts":           profile.Debts,
	}

	if profile.HasTransactions() {
		byCategory := analysis.ExpensesByCategory(profile)
		state[keyCategorySpending] = byCategory
		state[keyTotalSpending] = sum(byCategory)
	}

	if len(profile.ManualExpenses) > 0 {
		state[keyManualCategorySpending] = profile.ManualExpenses
		state[keyTotalManualSpending] = sum(profile.ManualExpenses)
	}

	return state
}

func sum(values map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, value := range values {
		total = total.Add(value)
	}
	return total
}
