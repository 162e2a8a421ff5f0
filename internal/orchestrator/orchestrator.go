package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"example.com/ai-finance-coach/backend/internal/ai"
	"example.com/ai-finance-coach/backend/internal/analysis"
	"example.com/ai-finance-coach/backend/internal/models"
	"example.com/ai-finance-coach/backend/internal/validation"
)

type Mode string

const (
	ModeAuto      Mode = "auto"
	ModeAIOnly    Mode = "ai"
	ModeRuleBased Mode = "basic"
)

const (
	FallbackReasonUnavailable = "AI service unavailable"

	serviceTypeAI       = "AI-Powered"
	serviceTypeFallback = "Rule-Based Fallback"
)

var (
	ErrAIUnavailable = errors.New("ai analysis is not available, check the AI provider api key configuration")
	ErrAIFailed      = errors.New("ai analysis failed")
)

// ParseMode разбирает режим анализа из строки (auto|ai|basic).
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeAIOnly:
		return ModeAIOnly, nil
	case ModeRuleBased, "rule-based":
		return ModeRuleBased, nil
	default:
		return "", fmt.Errorf("unknown analysis mode %q", value)
	}
}

// Bridge запускает внешний конвейер AI-агентов.
type Bridge interface {
	Available() bool
	Info() ai.Info
	Run(ctx context.Context, profile models.FinancialProfile, onStage ai.StageFunc) (ai.Result, error)
}

// RunObserver получает события хода анализа. Stage может вызываться из другой горутины.
type RunObserver interface {
	Started(mode Mode)
	Stage(agent string)
	Completed(metadata models.AnalysisMetadata)
	Failed(err error)
}

// Status описывает доступность AI для /service-status.
type Status struct {
	AIAvailable      bool   `json:"ai_available" yaml:"ai_available"`
	APIKeyConfigured bool   `json:"api_key_configured" yaml:"api_key_configured"`
	Provider         string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model            string `json:"model,omitempty" yaml:"model,omitempty"`
	ServiceType      string `json:"service_type" yaml:"service_type"`
}

type Orchestrator struct {
	bridge   Bridge
	validate *validator.Validate
	timeout  time.Duration
	logger   *logrus.Entry
	now      func() time.Time
}

type Option func(*Orchestrator)

// WithTimeout ограничивает время одной попытки AI-анализа.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = timeout
	}
}

// WithLogger задает логгер оркестратора.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger.WithField("component", "orchestrator")
		}
	}
}

// WithClock подменяет источник времени для метаданных.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New создает оркестратор. bridge может быть nil: тогда доступен только rule-based анализ.
func New(bridge Bridge, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		bridge:   bridge,
		validate: validation.New(),
		logger:   logrus.NewEntry(logrus.StandardLogger()),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// AIAvailable сообщает, настроен ли AI-путь.
func (o *Orchestrator) AIAvailable() bool {
	return o.bridge != nil && o.bridge.Available()
}

// Status возвращает состояние AI-сервиса.
func (o *Orchestrator) Status() Status {
	status := Status{ServiceType: serviceTypeFallback}
	if o.bridge == nil {
		return status
	}

	info := o.bridge.Info()
	status.APIKeyConfigured = info.KeyConfigured
	status.Provider = info.Provider
	status.Model = info.Model
	status.AIAvailable = o.bridge.Available()
	if status.AIAvailable {
		status.ServiceType = serviceTypeAI
	}

	return status
}

// Run выполняет анализ в заданном режиме.
func (o *Orchestrator) Run(ctx context.Context, profile models.FinancialProfile, mode Mode) (models.AnalysisResult, error) {
	return o.RunObserved(ctx, profile, mode, nil)
}

// RunObserved как Run, но сообщает о ходе анализа наблюдателю.
// В режиме auto ошибка не возвращается никогда: сбой AI заменяется rule-based результатом.
func (o *Orchestrator) RunObserved(ctx context.Context, profile models.FinancialProfile, mode Mode, observer RunObserver) (models.AnalysisResult, error) {
	if observer == nil {
		observer = noopObserver{}
	}
	observer.Started(mode)

	result, err := o.run(ctx, profile, mode, observer)
	if err != nil {
		observer.Failed(err)
		return result, err
	}

	observer.Completed(result.Metadata)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, profile models.FinancialProfile, mode Mode, observer RunObserver) (models.AnalysisResult, error) {
	switch mode {
	case ModeRuleBased:
		return o.ruleBased(profile, models.AnalysisMetadata{PoweredBy: models.PoweredByRuleBased}), nil

	case ModeAIOnly:
		if !o.AIAvailable() {
			return models.AnalysisResult{}, ErrAIUnavailable
		}

		result, err := o.attemptAI(ctx, profile, observer)
		if err != nil {
			o.logger.WithError(err).Warn("ai-only analysis failed")
			return models.AnalysisResult{}, fmt.Errorf("%w: %w", ErrAIFailed, err)
		}
		return result, nil

	case ModeAuto:
		if !o.AIAvailable() {
			return o.ruleBased(profile, models.AnalysisMetadata{
				PoweredBy:      models.PoweredByRuleBased,
				FallbackReason: FallbackReasonUnavailable,
			}), nil
		}

		result, err := o.attemptAI(ctx, profile, observer)
		if err != nil {
			o.logger.WithError(err).Warn("ai analysis failed, falling back to rule-based")
			return o.ruleBased(profile, models.AnalysisMetadata{
				PoweredBy: models.PoweredByFallbackAfterAIError,
				Error:     err.Error(),
			}), nil
		}
		return result, nil

	default:
		return models.AnalysisResult{}, fmt.Errorf("unknown analysis mode %q", mode)
	}
}

func (o *Orchestrator) ruleBased(profile models.FinancialProfile, metadata models.AnalysisMetadata) models.AnalysisResult {
	sections := analysis.Run(profile)
	metadata.Timestamp = o.now().UTC()

	return models.AnalysisResult{
		BudgetAnalysis:  sections.Budget,
		SavingsStrategy: sections.Savings,
		DebtReduction:   sections.Debt,
		Metadata:        metadata,
	}
}

type bridgeOutcome struct {
	result ai.Result
	err    error
}

// attemptAI делает одну попытку AI-анализа с таймаутом. Паника конвейера считается ошибкой.
func (o *Orchestrator) attemptAI(ctx context.Context, profile models.FinancialProfile, observer RunObserver) (models.AnalysisResult, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	gate := &stageGate{observer: observer}
	defer gate.close()

	done := make(chan bridgeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- bridgeOutcome{err: fmt.Errorf("ai pipeline panic: %v", r)}
			}
		}()

		result, err := o.bridge.Run(ctx, profile, gate.stage)
		done <- bridgeOutcome{result: result, err: err}
	}()

	var outcome bridgeOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		return models.AnalysisResult{}, fmt.Errorf("ai pipeline did not finish: %w", ctx.Err())
	}

	if outcome.err != nil {
		return models.AnalysisResult{}, outcome.err
	}

	return o.merge(profile, outcome.result), nil
}

// stageGate пропускает события этапов только пока attemptAI не вернулся.
type stageGate struct {
	mu       sync.Mutex
	closed   bool
	observer RunObserver
}

func (g *stageGate) stage(agent string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.observer.Stage(agent)
}

func (g *stageGate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

type noopObserver struct{}

func (noopObserver) Started(Mode) {}

func (noopObserver) Stage(string) {}

func (noopObserver) Completed(models.AnalysisMetadata) {}

func (noopObserver) Failed(error) {}
